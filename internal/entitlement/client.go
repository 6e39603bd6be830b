package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrForbidden indica resposta 403 do serviço de billing
var ErrForbidden = errors.New("entitlements forbidden")

// BillingClient consulta o serviço de billing pelos entitlements ativos
// de uma identidade
type BillingClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewBillingClient(base string) *BillingClient {
	return &BillingClient{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Fetch retorna os aliases de modelo liberados para a credencial informada.
// A credencial vai como bearer token (nunca em query string, que vaza em
// logs de acesso); vazia consulta os entitlements anônimos.
func (c *BillingClient) Fetch(ctx context.Context, identity string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/entitlements", nil)
	if err != nil {
		return nil, err
	}
	if identity != "" {
		req.Header.Set("Authorization", "Bearer "+identity)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusForbidden {
		return nil, ErrForbidden
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("billing http %d", res.StatusCode)
	}

	var out struct {
		Entitlements []string `json:"entitlements"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Entitlements, nil
}
