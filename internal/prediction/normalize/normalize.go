package normalize

// Source identifica qual campo do payload bruto originou a confiança canônica
type Source string

const (
	SourceHomeRL            Source = "prob_home_rl"
	SourceAwayRL            Source = "prob_away_rl"
	SourceDrawRL            Source = "prob_draw_rl"
	SourceHomeWin           Source = "prob_home_win"
	SourceAwayWin           Source = "prob_away_win"
	SourceDraw              Source = "prob_draw"
	SourceWinnerConfidence  Source = "winner_confidence"
	SourceOverallConfidence Source = "overall_confidence"
	SourceGeneric           Source = "confidence"
	SourceNone              Source = "none"
)

// Fallback informa se a confiança veio de um campo genérico (winner_confidence,
// overall_confidence, confidence) ou de nenhum campo reconhecido
func (s Source) Fallback() bool {
	switch s {
	case SourceWinnerConfidence, SourceOverallConfidence, SourceGeneric, SourceNone:
		return true
	}
	return false
}

// Result é o registro canônico de predição consumido por todo o restante
// da plataforma, independente do formato devolvido pelo modelo
type Result struct {
	PredictedWinner string   `json:"predicted_winner"`
	Confidence      float64  `json:"confidence"`
	Margin          *float64 `json:"margin,omitempty"`
	ModelAlias      string   `json:"model_alias"`
	PredictionID    *int64   `json:"prediction_id,omitempty"`

	// Condições registradas durante a normalização; quem chamou decide logar
	ConfidenceSource Source `json:"-"`
	AliasSubstituted bool   `json:"-"` // alias veio do backend e difere do solicitado
}

// Normalize converte um payload bruto em resultado canônico.
//
// Função pura e total: ausência de dados degrada para defaults, nunca falha.
//
// Ordem de resolução da confiança (a primeira regra que casar vence; as
// regras 1-6 exigem o rótulo de vencedor E o campo correspondente):
//  1. "Home" + prob_home_rl
//  2. "Away" + prob_away_rl
//  3. "Draw" + prob_draw_rl
//  4. "Home Win" + prob_home_win
//  5. "Away Win" + prob_away_win
//  6. "Draw" + prob_draw
//  7. winner_confidence
//  8. overall_confidence
//  9. confidence
//  10. nenhum campo presente -> 0
//
// Resolução do alias: model_alias do backend > model do backend > alias
// solicitado. Divergência entre solicitado e retornado é registrada no
// Result, nunca rejeitada.
func Normalize(raw RawResponse, requestedAlias string) Result {
	conf, src := resolveConfidence(raw)

	alias := requestedAlias
	substituted := false
	switch {
	case raw.ModelAlias != "":
		alias = raw.ModelAlias
		substituted = raw.ModelAlias != requestedAlias
	case raw.Model != "":
		alias = raw.Model
		substituted = raw.Model != requestedAlias
	}

	return Result{
		PredictedWinner:  raw.PredictedWinner,
		Confidence:       clamp01(conf),
		Margin:           raw.Margin,
		ModelAlias:       alias,
		PredictionID:     raw.PredictionID,
		ConfidenceSource: src,
		AliasSubstituted: substituted,
	}
}

func resolveConfidence(raw RawResponse) (float64, Source) {
	w := raw.PredictedWinner
	switch {
	case w == "Home" && raw.ProbHomeRL != nil:
		return *raw.ProbHomeRL, SourceHomeRL
	case w == "Away" && raw.ProbAwayRL != nil:
		return *raw.ProbAwayRL, SourceAwayRL
	case w == "Draw" && raw.ProbDrawRL != nil:
		return *raw.ProbDrawRL, SourceDrawRL
	case w == "Home Win" && raw.ProbHomeWin != nil:
		return *raw.ProbHomeWin, SourceHomeWin
	case w == "Away Win" && raw.ProbAwayWin != nil:
		return *raw.ProbAwayWin, SourceAwayWin
	case w == "Draw" && raw.ProbDraw != nil:
		return *raw.ProbDraw, SourceDraw
	case raw.WinnerConfidence != nil:
		return *raw.WinnerConfidence, SourceWinnerConfidence
	case raw.OverallConfidence != nil:
		return *raw.OverallConfidence, SourceOverallConfidence
	case raw.Confidence != nil:
		return *raw.Confidence, SourceGeneric
	}
	return 0, SourceNone
}

// confiança canônica é sempre uma probabilidade
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
