package consumer

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/recorder/cache"
	"github.com/radieske/prediction-gateway-poc/internal/recorder/repository"
	"github.com/radieske/prediction-gateway-poc/internal/shared/kafka"
	"github.com/radieske/prediction-gateway-poc/pkg/contracts/events"
)

// Processor consome eventos prediction_completed do Kafka, faz cache e
// persiste no banco. Callbacks de métricas monitoram cada etapa.
type Processor struct {
	Log    *zap.Logger
	Reader *kafkago.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache
	DLQ    *kafkago.Writer // opcional; mensagens indecodificáveis vão pra cá

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase

	// OnAfterPersist é chamado após persistência com sucesso
	// (usado para repassar o evento ao broadcast WebSocket)
	OnAfterPersist func(events.PredictionCompleted)
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed() // callback de métrica: mensagem consumida
		}

		var ev events.PredictionCompleted
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			if p.DLQ != nil {
				_ = kafka.WriteJSON(ctx, p.DLQ, string(m.Key), m.Value)
			}
			continue
		}

		// Atualiza cache Redis com a predição mais recente
		if err := p.Cache.SetLatest(ctx, ev); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
			// não bloqueia persistência se falhar o cache
		} else if p.OnCached != nil {
			p.OnCached() // callback de métrica: cache atualizado
		}

		// Persiste/atualiza predição corrente e histórico no Postgres
		if err := p.Repo.UpsertLatest(ctx, ev); err != nil {
			p.Log.Warn("db upsert failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_upsert")
			}
			continue
		}
		if err := p.Repo.InsertHistory(ctx, ev); err != nil {
			p.Log.Warn("db insert history failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_history")
			}
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist() // callback de métrica: persistência concluída
		}
		if p.OnAfterPersist != nil {
			p.OnAfterPersist(ev)
		}
	}
}
