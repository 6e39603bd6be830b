package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/prediction-gateway-poc/pkg/contracts/events"
)

// RedisCache encapsula o cache da predição mais recente por partida/modelo
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis da predição mais recente de uma partida/modelo
func key(matchKey, alias string) string {
	return "prediction:latest:" + matchKey + ":" + alias
}

// SetLatest armazena a predição mais recente com TTL definido
func (r *RedisCache) SetLatest(ctx context.Context, e events.PredictionCompleted) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(e.MatchKey, e.ModelAlias), b, r.TTL).Err()
}
