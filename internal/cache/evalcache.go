package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chesskeep/chess-review-backend/pkg/review"
)

// RedisEvalCache keeps finished position evaluations in redis, keyed
// by FEN and search depth, so repeated games skip engine work. A cache
// problem only costs a recomputation, so read and write errors are
// logged and swallowed.
type RedisEvalCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRedisEvalCache(ctx context.Context, addr, password string, db int, ttl time.Duration, log *zap.SugaredLogger) (*RedisEvalCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisEvalCache{client: client, ttl: ttl, log: log}, nil
}

func evalKey(fen string, depth int) string {
	return fmt.Sprintf("eval:%s:d%d", fen, depth)
}

func (c *RedisEvalCache) Get(ctx context.Context, fen string, depth int) (*review.PositionEvaluation, bool) {
	val, err := c.client.Get(ctx, evalKey(fen, depth)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("eval cache read failed", "fen", fen, "error", err)
		}
		return nil, false
	}

	var ev review.PositionEvaluation
	if err := json.Unmarshal([]byte(val), &ev); err != nil {
		c.log.Warnw("eval cache entry is corrupt", "fen", fen, "error", err)
		return nil, false
	}
	if len(ev.Lines) == 0 {
		return nil, false
	}
	return &ev, true
}

func (c *RedisEvalCache) Put(ctx context.Context, fen string, depth int, ev *review.PositionEvaluation) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Warnw("eval cache encode failed", "fen", fen, "error", err)
		return
	}
	if err := c.client.Set(ctx, evalKey(fen, depth), data, c.ttl).Err(); err != nil {
		c.log.Warnw("eval cache write failed", "fen", fen, "error", err)
	}
}

func (c *RedisEvalCache) Close() error {
	return c.client.Close()
}
