package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/prediction/orchestrator"
)

// Client consulta o user-service: histórico de predições e feedback
type Client struct {
	log     *zap.Logger
	BaseURL string
	HTTP    *http.Client
}

func NewClient(log *zap.Logger, base string) *Client {
	return &Client{
		log:     log,
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Fetch busca o histórico de predições do usuário autenticado,
// já normalizado e ordenado do mais recente para o mais antigo
func (c *Client) Fetch(ctx context.Context, credential string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/me/predictions", nil)
	if err != nil {
		return nil, &orchestrator.TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &orchestrator.TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, &orchestrator.TransportError{Status: res.StatusCode, Detail: orchestrator.ErrorDetail(res.Body)}
	}

	var records []RawRecord
	if err := json.NewDecoder(res.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	c.log.Debug("history fetched", zap.Int("records", len(records)))
	return Reconcile(records), nil
}

type ratingPayload struct {
	PredictionID string `json:"prediction_id"`
	RatingValue  int    `json:"rating_value"`
}

// SubmitRating envia a avaliação (1 a 5) de uma predição
func (c *Client) SubmitRating(ctx context.Context, credential, predictionID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating out of range: %d", rating)
	}
	body, _ := json.Marshal(ratingPayload{PredictionID: predictionID, RatingValue: rating})
	return c.postFeedback(ctx, credential, "/users/feedback/rating", body)
}

type resultPayload struct {
	PredictionID string `json:"prediction_id"`
	ActualWinner string `json:"actual_winner"`
	ActualMargin int    `json:"actual_margin"`
}

// SubmitResult envia o desfecho real da partida de uma predição
// (vencedor e margem, margem nunca negativa)
func (c *Client) SubmitResult(ctx context.Context, credential, predictionID, actualWinner string, actualMargin int) error {
	if actualWinner == "" {
		return fmt.Errorf("actual winner is required")
	}
	if actualMargin < 0 {
		return fmt.Errorf("negative margin: %d", actualMargin)
	}
	body, _ := json.Marshal(resultPayload{PredictionID: predictionID, ActualWinner: actualWinner, ActualMargin: actualMargin})
	return c.postFeedback(ctx, credential, "/users/feedback/result", body)
}

func (c *Client) postFeedback(ctx context.Context, credential, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return &orchestrator.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return &orchestrator.TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return &orchestrator.TransportError{Status: res.StatusCode, Detail: orchestrator.ErrorDetail(res.Body)}
	}
	return nil
}
