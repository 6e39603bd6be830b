package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/prediction/normalize"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/registry"
)

// Request representa os dados de uma partida submetidos para predição
type Request struct {
	TeamA       string   `json:"team_a"`
	TeamB       string   `json:"team_b"`
	MatchDate   string   `json:"match_date_str"`
	OddA        *float64 `json:"odd_a,omitempty"`
	OddB        *float64 `json:"odd_b,omitempty"`
	OddsHomeWin *float64 `json:"odds_home_win,omitempty"`
	OddsAwayWin *float64 `json:"odds_away_win,omitempty"`
}

// Client orquestra chamadas aos serviços de modelo: resolve o alias no
// registro, faz a chamada e normaliza a resposta para o formato canônico.
//
// Não impõe entitlement: essa checagem é da camada de apresentação,
// antes de chamar Predict. Também não persiste resultados.
type Client struct {
	log  *zap.Logger
	reg  *registry.Registry
	http *http.Client

	// OnFallback é chamado quando a confiança vem de um campo de fallback
	// ou de nenhum campo (métricas); opcional
	OnFallback func(source string)
}

func New(log *zap.Logger, reg *registry.Registry) *Client {
	return &Client{
		log:  log,
		reg:  reg,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Predict resolve o alias, chama o endpoint do modelo (uma única tentativa,
// sem retry) e devolve o resultado canônico.
//
// credential, quando presente, vai como bearer token. Alias desconhecido
// falha com registry.ErrUnknownModel antes de qualquer chamada de rede.
// Falha de rede ou não-2xx vira *TransportError. Corpo 2xx fora do formato
// esperado degrada para defaults (logado), não falha a chamada.
func (c *Client) Predict(ctx context.Context, req Request, alias string, credential string) (normalize.Result, error) {
	desc, err := c.reg.Lookup(alias)
	if err != nil {
		return normalize.Result{}, err
	}

	body, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.Endpoint, bytes.NewReader(body))
	if err != nil {
		return normalize.Result{}, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return normalize.Result{}, &TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return normalize.Result{}, &TransportError{Status: res.StatusCode, Detail: ErrorDetail(res.Body)}
	}

	var raw normalize.RawResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		// corpo fora do formato esperado degrada para defaults
		c.log.Warn("malformed model response",
			zap.String("alias", alias),
			zap.Error(err),
		)
		raw = normalize.RawResponse{}
	}

	out := normalize.Normalize(raw, alias)
	c.report(alias, out)
	return out, nil
}

// report loga as condições não-fatais registradas pela normalização
func (c *Client) report(requested string, r normalize.Result) {
	if r.AliasSubstituted {
		c.log.Warn("model alias mismatch",
			zap.String("requested", requested),
			zap.String("returned", r.ModelAlias),
		)
	}
	if r.ConfidenceSource == normalize.SourceNone {
		c.log.Warn("no confidence field in model response",
			zap.String("alias", requested),
			zap.String("winner", r.PredictedWinner),
		)
	} else if r.ConfidenceSource.Fallback() {
		c.log.Info("confidence from fallback field",
			zap.String("alias", requested),
			zap.String("source", string(r.ConfidenceSource)),
		)
	}
	if c.OnFallback != nil && r.ConfidenceSource.Fallback() {
		c.OnFallback(string(r.ConfidenceSource))
	}
}

// ErrorDetail tenta extrair "detail" (ou "error") de um corpo de erro JSON
func ErrorDetail(r io.Reader) string {
	var e struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&e); err != nil {
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}
