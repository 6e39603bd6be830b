package events

// Evento publicado no tópico "prediction_completed" a cada predição servida
// pelo prediction-gateway. Consumido pelo prediction-recorder-worker.
type PredictionCompleted struct {
	PredictionID    string   `json:"prediction_id"`
	MatchKey        string   `json:"match_key"` // "{home}|{away}|{date}"
	HomeTeam        string   `json:"home_team"`
	AwayTeam        string   `json:"away_team"`
	MatchDate       string   `json:"match_date"`
	ModelAlias      string   `json:"model_alias"`
	PredictedWinner string   `json:"predicted_winner"`
	Confidence      float64  `json:"confidence"`
	Margin          *float64 `json:"margin,omitempty"`
	Source          string   `json:"source"` // "prediction-gateway"
	TsUnixMs        int64    `json:"ts_unix_ms"`
}
