package normalize

// RawResponse é o payload bruto retornado pelos serviços de modelo.
// O formato varia por modelo: padrão (LR/LGBM/Stacker), variante RL,
// ou só uma confidence genérica. Nenhum campo é garantido; campos
// podem se sobrepor entre formatos.
type RawResponse struct {
	PredictedWinner string `json:"predicted_winner"`

	// Formato padrão
	ProbHomeWin *float64 `json:"prob_home_win"`
	ProbAwayWin *float64 `json:"prob_away_win"`
	ProbDraw    *float64 `json:"prob_draw"`

	// Variante RL
	ProbHomeRL        *float64 `json:"prob_home_rl"`
	ProbAwayRL        *float64 `json:"prob_away_rl"`
	ProbDrawRL        *float64 `json:"prob_draw_rl"`
	WinnerConfidence  *float64 `json:"winner_confidence"`
	OverallConfidence *float64 `json:"overall_confidence"`

	// Fallback genérico
	Confidence *float64 `json:"confidence"`

	// Identificação do modelo informada pelo backend
	ModelAlias string `json:"model_alias"`
	Model      string `json:"model"`

	Margin       *float64 `json:"margin"`
	PredictionID *int64   `json:"prediction_id"`
}
