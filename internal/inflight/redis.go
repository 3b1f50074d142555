package inflight

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// só apaga a chave se ainda for o dono
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis compartilha o guard entre instâncias da API (SET NX com TTL).
// O TTL cobre o caso de a instância morrer segurando a chave.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       *slog.Logger
}

func NewRedis(client *redis.Client, keyPrefix string, ttl time.Duration, log *slog.Logger) *Redis {
	if keyPrefix == "" {
		keyPrefix = "financehub:inflight:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Redis{client: client, keyPrefix: keyPrefix, ttl: ttl, log: log.With("cmp", "inflight")}
}

func (r *Redis) Acquire(ctx context.Context, id string) (func(), error) {
	key := r.keyPrefix + id
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("inflight acquire: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			r.log.Warn("inflight_release_failed", "key", key, "err", err)
		}
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("inflight token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
