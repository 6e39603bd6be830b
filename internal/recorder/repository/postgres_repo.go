package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/prediction-gateway-poc/pkg/contracts/events"
)

// PostgresRepo implementa a persistência de predições em banco Postgres
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertLatest insere ou atualiza a predição corrente de uma partida/modelo
// na tabela predictions_current. ON CONFLICT garante uma linha por
// (match_key, model_alias).
func (r *PostgresRepo) UpsertLatest(ctx context.Context, e events.PredictionCompleted) error {
	const q = `
		INSERT INTO predictions_current
		  (prediction_id, match_key, home_team, away_team, match_date, model_alias, predicted_winner, confidence, margin, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (match_key, model_alias) DO UPDATE SET
		  prediction_id    = EXCLUDED.prediction_id,
		  home_team        = EXCLUDED.home_team,
		  away_team        = EXCLUDED.away_team,
		  match_date       = EXCLUDED.match_date,
		  predicted_winner = EXCLUDED.predicted_winner,
		  confidence       = EXCLUDED.confidence,
		  margin           = EXCLUDED.margin,
		  updated_at       = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.PredictionID, e.MatchKey, e.HomeTeam, e.AwayTeam, e.MatchDate,
		e.ModelAlias, e.PredictedWinner, e.Confidence, e.Margin,
		time.UnixMilli(e.TsUnixMs).UTC(),
	)
	return err
}

// InsertHistory insere a predição no histórico (predictions_history)
func (r *PostgresRepo) InsertHistory(ctx context.Context, e events.PredictionCompleted) error {
	const q = `
		INSERT INTO predictions_history
		  (prediction_id, match_key, model_alias, predicted_winner, confidence, margin, created_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.PredictionID, e.MatchKey, e.ModelAlias, e.PredictedWinner,
		e.Confidence, e.Margin, time.UnixMilli(e.TsUnixMs).UTC(),
	)
	return err
}
