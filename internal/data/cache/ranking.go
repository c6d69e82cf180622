// Package cache keeps per-category post leaderboards in Redis sorted sets.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

// ErrUnavailable is returned by Top when no ranking backend is configured.
// Callers fall back to sorting in the database.
var ErrUnavailable = errors.New("ranking cache unavailable")

// AllCategories is the board that every post is recorded on.
const AllCategories = "_all"

type Ranking interface {
	Record(ctx context.Context, category string, postID uuid.UUID, score float64) error
	Remove(ctx context.Context, category string, postID uuid.UUID) error
	Top(ctx context.Context, category string, n int) ([]uuid.UUID, error)
	Close() error
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type redisRanking struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewRedisRanking(ctx context.Context, cfg RedisConfig, log *logger.Logger) (Ranking, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "tradeguild:rank"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisRanking{
		log:    log.With("service", "RedisRanking"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (r *redisRanking) key(category string) string {
	return r.prefix + ":" + category
}

// Record writes the score on the category board and on the all-categories board.
func (r *redisRanking) Record(ctx context.Context, category string, postID uuid.UUID, score float64) error {
	member := goredis.Z{Score: score, Member: postID.String()}
	pipe := r.rdb.TxPipeline()
	pipe.ZAdd(ctx, r.key(AllCategories), member)
	if category != "" && category != AllCategories {
		pipe.ZAdd(ctx, r.key(category), member)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisRanking) Remove(ctx context.Context, category string, postID uuid.UUID) error {
	pipe := r.rdb.TxPipeline()
	pipe.ZRem(ctx, r.key(AllCategories), postID.String())
	if category != "" && category != AllCategories {
		pipe.ZRem(ctx, r.key(category), postID.String())
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisRanking) Top(ctx context.Context, category string, n int) ([]uuid.UUID, error) {
	if n <= 0 {
		return []uuid.UUID{}, nil
	}
	if category == "" {
		category = AllCategories
	}
	members, err := r.rdb.ZRevRange(ctx, r.key(category), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.log.Warn("dropping malformed ranking member", "member", m, "error", err)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *redisRanking) Close() error { return r.rdb.Close() }

type noopRanking struct{}

// NewNoopRanking is used when REDIS_ADDR is unset.
func NewNoopRanking() Ranking { return noopRanking{} }

func (noopRanking) Record(context.Context, string, uuid.UUID, float64) error { return nil }
func (noopRanking) Remove(context.Context, string, uuid.UUID) error          { return nil }
func (noopRanking) Top(context.Context, string, int) ([]uuid.UUID, error) {
	return nil, ErrUnavailable
}
func (noopRanking) Close() error { return nil }
