package history

import (
	"sort"
	"time"

	"github.com/radieske/prediction-gateway-poc/internal/prediction/normalize"
)

// RawRecord é um registro bruto de predição devolvido pelo user-service.
// Os campos de probabilidade seguem os mesmos formatos heterogêneos das
// respostas de modelo; "model" identifica o modelo que gerou o registro.
type RawRecord struct {
	normalize.RawResponse

	MatchID             string `json:"match_id"`
	MatchDate           string `json:"match_date"`
	HomeTeamName        string `json:"home_team_name"`
	AwayTeamName        string `json:"away_team_name"`
	PredictionTimestamp string `json:"prediction_timestamp"`
}

// Entry é um resultado canônico acompanhado dos dados da partida
type Entry struct {
	normalize.Result

	MatchID   string `json:"match_id,omitempty"`
	MatchDate string `json:"match_date,omitempty"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Timestamp string `json:"prediction_timestamp,omitempty"`

	ts time.Time
}

// Reconcile normaliza cada registro (com o campo "model" do registro no
// lugar do alias solicitado) e devolve uma fatia nova ordenada por
// prediction_timestamp decrescente. Timestamps ausentes ou inválidos valem
// zero e vão para o fim. A fatia de entrada não é modificada.
func Reconcile(records []RawRecord) []Entry {
	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		out = append(out, Entry{
			Result:    normalize.Normalize(rec.RawResponse, rec.Model),
			MatchID:   rec.MatchID,
			MatchDate: rec.MatchDate,
			HomeTeam:  rec.HomeTeamName,
			AwayTeam:  rec.AwayTeamName,
			Timestamp: rec.PredictionTimestamp,
			ts:        parseTimestamp(rec.PredictionTimestamp),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ts.After(out[j].ts)
	})
	return out
}

// formatos de timestamp observados nos bancos de predição
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{} // inválido ordena como o mais antigo
}
