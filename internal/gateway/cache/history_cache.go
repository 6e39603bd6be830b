package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryCache guarda respostas de histórico no Redis, com chave derivada
// da credencial (o token nunca é armazenado em claro)
type HistoryCache struct{ R *redis.Client }

func New(r *redis.Client) *HistoryCache { return &HistoryCache{R: r} }

func keyHistory(credHash string) string { return "predictions:history:" + credHash }

// Key deriva a chave de cache a partir da credencial
func Key(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:8])
}

func (c *HistoryCache) Get(ctx context.Context, credHash string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyHistory(credHash)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *HistoryCache) Set(ctx context.Context, credHash string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyHistory(credHash), b, ttl).Err()
}
