package dto

// PredictResponse devolve o resultado canônico ao cliente
type PredictResponse struct {
	PredictionID    *int64   `json:"prediction_id,omitempty"`
	PredictedWinner string   `json:"predicted_winner"`
	Confidence      float64  `json:"confidence"`
	Margin          *float64 `json:"margin,omitempty"`
	ModelAlias      string   `json:"model_alias"`
}

// ModelResponse descreve um modelo e se está liberado para o chamador
type ModelResponse struct {
	ID          string `json:"id"`
	Alias       string `json:"alias"`
	Tier        string `json:"tier"`
	Description string `json:"description"`
	Allowed     bool   `json:"allowed"`
}

// ErrorResponse é o payload de erro padrão da API
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
