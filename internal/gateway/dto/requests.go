package dto

// PredictRequest é o payload de POST /v1/predictions
type PredictRequest struct {
	TeamA       string   `json:"team_a"`
	TeamB       string   `json:"team_b"`
	MatchDate   string   `json:"match_date"`
	Model       string   `json:"model"` // alias do modelo (ex: "Quick Pick")
	OddA        *float64 `json:"odd_a,omitempty"`
	OddB        *float64 `json:"odd_b,omitempty"`
	OddsHomeWin *float64 `json:"odds_home_win,omitempty"`
	OddsAwayWin *float64 `json:"odds_away_win,omitempty"`
}

// RatingRequest é o payload de POST /v1/ratings
type RatingRequest struct {
	PredictionID string `json:"prediction_id"`
	RatingValue  int    `json:"rating_value"`
}

// ResultRequest é o payload de POST /v1/results: o desfecho real da
// partida correspondente a uma predição
type ResultRequest struct {
	PredictionID string `json:"prediction_id"`
	ActualWinner string `json:"actual_winner"`
	ActualMargin int    `json:"actual_margin"`
}
