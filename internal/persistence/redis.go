package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

// RedisConfig configures RedisService.
type RedisConfig struct {
	// KeyPrefix is prepended to every key, e.g. "catalog-admin:".
	KeyPrefix string
	// TTL expires stored values; zero keeps them forever.
	TTL time.Duration
	// Timeout bounds each call.
	Timeout time.Duration
	Breaker BreakerConfig
}

// RedisService implements Service on Redis.
type RedisService struct {
	client    redis.Cmdable
	cfg       RedisConfig
	namespace string
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

// NewRedisService creates a service with its own circuit breaker. m may be nil.
func NewRedisService(client redis.Cmdable, cfg RedisConfig, l *slog.Logger, m *Metrics) *RedisService {
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "redis-persistence"
	}
	return &RedisService{
		client:  client,
		cfg:     cfg,
		breaker: newBreaker(cfg.Breaker, l, m),
	}
}

// WithNamespace returns a view of the service whose keys live under ns. The
// breaker is shared.
func (r *RedisService) WithNamespace(ns string) *RedisService {
	cp := *r
	cp.namespace = ns
	return &cp
}

func (r *RedisService) key(k string) string {
	if r.namespace == "" {
		return r.cfg.KeyPrefix + k
	}
	return r.cfg.KeyPrefix + r.namespace + ":" + k
}

func (r *RedisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.Timeout)
}

// Set writes value and reads it back in one MULTI/EXEC transaction.
func (r *RedisService) Set(ctx context.Context, key string, value []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	k := r.key(key)

	stored, err := r.breaker.Execute(func() ([]byte, error) {
		pipe := r.client.TxPipeline()
		pipe.Set(ctx, k, value, r.cfg.TTL)
		get := pipe.Get(ctx, k)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
		return get.Bytes()
	})
	if err != nil {
		return nil, r.wrap("set", k, err)
	}
	return stored, nil
}

// Get reads key.
func (r *RedisService) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	k := r.key(key)

	v, err := r.breaker.Execute(func() ([]byte, error) {
		v, err := r.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("preference", k)
		}
		return v, err
	})
	if err != nil {
		return nil, r.wrap("get", k, err)
	}
	return v, nil
}

// Ping checks the connection. It bypasses the breaker.
func (r *RedisService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisService) wrap(op, key string, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return err
	case isBreakerRejection(err):
		return apperrors.Unavailable("redis", err)
	}
	return fmt.Errorf("redis %s %s: %w", op, key, err)
}
