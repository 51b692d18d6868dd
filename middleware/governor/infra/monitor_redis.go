package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"request-governor/middleware/governor/domain"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder espelha desfechos de requisição em Redis, como sink adicional
// ao monitor em memória. Serve para agregar números de várias instâncias do
// gateway; não é estado restaurável do governador.
type RedisRecorder struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas nos buckets por minuto; os totais são cumulativos
	// e não expiram.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisRecorderOption func(*RedisRecorder)

func WithRedisPrefix(prefix string) RedisRecorderOption {
	return func(r *RedisRecorder) {
		r.prefix = strings.Trim(prefix, ":")
	}
}

func WithRedisTTL(d time.Duration) RedisRecorderOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

func WithRedisBucket(bucket string) RedisRecorderOption {
	return func(r *RedisRecorder) { r.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisRecorder(rdb *redis.Client, opts ...RedisRecorderOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "governor:requests",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implementa domain.Recorder.
//
// Cuidado com cardinalidade: o hash por rota cresce com o número de paths
// distintos. Quem registra paths dinâmicos deve normalizar antes.
func (r *RedisRecorder) Record(ctx context.Context, rec domain.RequestRecord) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	at := rec.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	totalKey := r.prefix + ":total"

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, "requests", 1)
	if rec.IsError() {
		pipe.HIncrBy(ctx, totalKey, "errors", 1)
	}

	route := strings.TrimSpace(strings.TrimSpace(rec.Method) + " " + strings.TrimSpace(rec.Path))
	if route != "" {
		routeKey := r.prefix + ":route"
		pipe.HIncrBy(ctx, routeKey, route+":requests", 1)
		pipe.HIncrByFloat(ctx, routeKey, route+":duration", rec.Duration)
		if rec.IsError() {
			pipe.HIncrBy(ctx, routeKey, route+":errors", 1)
		}
	}

	if r.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", r.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, "requests", 1)
		if rec.IsError() {
			pipe.HIncrBy(ctx, bucketKey, "errors", 1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, bucketKey, r.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
