package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/entitlement"
	gcache "github.com/radieske/prediction-gateway-poc/internal/gateway/cache"
	"github.com/radieske/prediction-gateway-poc/internal/gateway/dto"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/history"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/orchestrator"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/registry"
	"github.com/radieske/prediction-gateway-poc/pkg/contracts/events"
)

const historyCacheTTL = 30 * time.Second

// Server expõe a API pública do prediction-gateway
//
// A checagem de entitlement acontece aqui, antes do orquestrador: o
// orquestrador só orquestra, a autorização é da camada de apresentação.
type Server struct {
	log    *zap.Logger
	reg    *registry.Registry
	orch   *orchestrator.Client
	gate   *entitlement.Gate
	users  *history.Client
	hcache *gcache.HistoryCache // opcional; nil desliga o cache
	publ   interface {
		PublishPredictionCompleted(context.Context, events.PredictionCompleted) error
	}
	ws http.HandlerFunc // opcional; nil desliga o endpoint /ws

	// OnPrediction recebe o desfecho de cada chamada de predição (métricas); opcional
	OnPrediction func(model, outcome string)
}

func NewServer(
	log *zap.Logger,
	reg *registry.Registry,
	orch *orchestrator.Client,
	gate *entitlement.Gate,
	users *history.Client,
	hcache *gcache.HistoryCache,
	publ interface {
		PublishPredictionCompleted(context.Context, events.PredictionCompleted) error
	},
	ws http.HandlerFunc,
) *Server {
	return &Server{log: log, reg: reg, orch: orch, gate: gate, users: users, hcache: hcache, publ: publ, ws: ws}
}

// Router retorna o roteador HTTP com os endpoints públicos
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/predictions", s.predict)  // Solicita uma predição
	r.Get("/v1/models", s.listModels)     // Lista modelos e quais estão liberados
	r.Get("/v1/history", s.getHistory)    // Histórico do usuário autenticado
	r.Post("/v1/ratings", s.submitRating) // Avaliação de uma predição
	r.Post("/v1/results", s.submitResult) // Desfecho real de uma partida
	if s.ws != nil {
		r.Get("/ws", s.ws) // Resultados em tempo real por partida
	}
	return r
}

// predict valida o payload, checa entitlement e delega ao orquestrador.
// Predição com sucesso publica evento prediction_completed (best effort).
func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	var req dto.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", "")
		return
	}
	if req.TeamA == "" || req.TeamB == "" || req.MatchDate == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid payload", "team_a, team_b, match_date and model are required")
		return
	}

	token := bearerToken(r)

	// o gate resolve o conjunto liberado da credencial desta requisição;
	// credenciais distintas nunca compartilham conjunto
	if !s.gate.Allowed(r.Context(), token, req.Model) {
		s.count(req.Model, "denied")
		writeError(w, http.StatusForbidden, "model not allowed for current plan", req.Model)
		return
	}

	res, err := s.orch.Predict(r.Context(), orchestrator.Request{
		TeamA:       req.TeamA,
		TeamB:       req.TeamB,
		MatchDate:   req.MatchDate,
		OddA:        req.OddA,
		OddB:        req.OddB,
		OddsHomeWin: req.OddsHomeWin,
		OddsAwayWin: req.OddsAwayWin,
	}, req.Model, token)
	if err != nil {
		var te *orchestrator.TransportError
		switch {
		case errors.Is(err, registry.ErrUnknownModel):
			s.count(req.Model, "unknown_model")
			writeError(w, http.StatusNotFound, "unknown model", req.Model)
		case errors.As(err, &te):
			s.count(req.Model, "transport_error")
			s.log.Warn("model call failed",
				zap.String("model", req.Model),
				zap.Int("status", te.Status),
				zap.Error(err),
			)
			writeError(w, http.StatusBadGateway, "model call failed", te.Detail)
		default:
			s.count(req.Model, "error")
			writeError(w, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}
	s.count(req.Model, "ok")

	// Publica evento prediction_completed; falha não bloqueia a resposta
	if s.publ != nil {
		ev := events.PredictionCompleted{
			PredictionID:    uuid.NewString(),
			MatchKey:        matchKey(req.TeamA, req.TeamB, req.MatchDate),
			HomeTeam:        req.TeamA,
			AwayTeam:        req.TeamB,
			MatchDate:       req.MatchDate,
			ModelAlias:      res.ModelAlias,
			PredictedWinner: res.PredictedWinner,
			Confidence:      res.Confidence,
			Margin:          res.Margin,
			Source:          "prediction-gateway",
		}
		if err := s.publ.PublishPredictionCompleted(r.Context(), ev); err != nil {
			s.log.Warn("publish prediction_completed failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, dto.PredictResponse{
		PredictionID:    res.PredictionID,
		PredictedWinner: res.PredictedWinner,
		Confidence:      res.Confidence,
		Margin:          res.Margin,
		ModelAlias:      res.ModelAlias,
	})
}

// listModels retorna o catálogo de modelos com a flag de liberação corrente
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	all := s.reg.All()
	out := make([]dto.ModelResponse, 0, len(all))
	for _, d := range all {
		out = append(out, dto.ModelResponse{
			ID:          d.ID,
			Alias:       d.Alias,
			Tier:        string(d.Tier),
			Description: d.Description,
			Allowed:     s.gate.Allowed(r.Context(), token, d.Alias),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// getHistory devolve o histórico normalizado do usuário, com cache de 30s
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "credential required", "")
		return
	}

	key := gcache.Key(token)
	if s.hcache != nil {
		var cached []history.Entry
		if ok, _ := s.hcache.Get(r.Context(), key, &cached); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	entries, err := s.users.Fetch(r.Context(), token)
	if err != nil {
		var te *orchestrator.TransportError
		if errors.As(err, &te) && te.Status == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "invalid credential", "")
			return
		}
		s.log.Warn("history fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "history fetch failed", "")
		return
	}

	if s.hcache != nil {
		_ = s.hcache.Set(r.Context(), key, entries, historyCacheTTL)
	}
	writeJSON(w, http.StatusOK, entries)
}

// submitRating repassa a avaliação ao user-service
func (s *Server) submitRating(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "credential required", "")
		return
	}

	var req dto.RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", "")
		return
	}
	if req.PredictionID == "" || req.RatingValue < 1 || req.RatingValue > 5 {
		writeError(w, http.StatusBadRequest, "invalid payload", "prediction_id and rating_value (1-5) are required")
		return
	}

	if err := s.users.SubmitRating(r.Context(), token, req.PredictionID, req.RatingValue); err != nil {
		s.feedbackError(w, "rating", req.PredictionID, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "SUBMITTED"})
}

// submitResult repassa o desfecho real da partida ao user-service
func (s *Server) submitResult(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "credential required", "")
		return
	}

	var req dto.ResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", "")
		return
	}
	if req.PredictionID == "" || req.ActualWinner == "" || req.ActualMargin < 0 {
		writeError(w, http.StatusBadRequest, "invalid payload", "prediction_id, actual_winner and a non-negative actual_margin are required")
		return
	}

	if err := s.users.SubmitResult(r.Context(), token, req.PredictionID, req.ActualWinner, req.ActualMargin); err != nil {
		s.feedbackError(w, "result", req.PredictionID, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "SUBMITTED"})
}

// feedbackError mapeia falhas de envio de feedback: 401 do user-service
// passa adiante (credencial inválida), o resto vira 502
func (s *Server) feedbackError(w http.ResponseWriter, kind, predictionID string, err error) {
	var te *orchestrator.TransportError
	if errors.As(err, &te) && te.Status == http.StatusUnauthorized {
		writeError(w, http.StatusUnauthorized, "invalid credential", "")
		return
	}
	s.log.Warn(kind+" submit failed", zap.String("prediction_id", predictionID), zap.Error(err))
	writeError(w, http.StatusBadGateway, kind+" submit failed", "")
}

func (s *Server) count(model, outcome string) {
	if s.OnPrediction != nil {
		s.OnPrediction(model, outcome)
	}
}

// bearerToken extrai a credencial do header Authorization, se presente
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// matchKey identifica uma partida para broadcast e persistência
func matchKey(home, away, date string) string {
	return home + "|" + away + "|" + date
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg, Detail: detail})
}
