package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/redis/go-redis/v9"
)

type RedisRecorder struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisRecorder(cfg RedisConfig) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRecorder{
		client: client,
		prefix: "tilecache:stats",
	}, nil
}

var _ Recorder = (*RedisRecorder)(nil)

func (r *RedisRecorder) keyFor(l tile.Layer) string {
	return fmt.Sprintf("%s:%s", r.prefix, l)
}

func (r *RedisRecorder) Record(ctx context.Context, l tile.Layer, o Outcome, bytes int64) error {
	d, err := delta(o, bytes)
	if err != nil {
		return err
	}

	key := r.keyFor(l)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, string(Downloaded), d.Downloaded)
		pipe.HIncrBy(ctx, key, string(Cached), d.Cached)
		pipe.HIncrBy(ctx, key, string(Failed), d.Failed)
		pipe.HIncrBy(ctx, key, "bytes", d.Bytes)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record error: %w", err)
	}

	return nil
}

func (r *RedisRecorder) Snapshot(ctx context.Context) (Snapshot, error) {
	s := emptySnapshot()
	for _, l := range tile.Layers {
		fields, err := r.client.HGetAll(ctx, r.keyFor(l)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis snapshot error: %w", err)
		}
		s[l.String()] = countersFromHash(fields)
	}
	return s, nil
}

func countersFromHash(fields map[string]string) Counters {
	parse := func(k string) int64 {
		v, err := strconv.ParseInt(fields[k], 10, 64)
		if err != nil {
			return 0
		}
		return v
	}

	return Counters{
		Downloaded: parse(string(Downloaded)),
		Cached:     parse(string(Cached)),
		Failed:     parse(string(Failed)),
		Bytes:      parse("bytes"),
	}
}

func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
