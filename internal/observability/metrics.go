package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

const defaultScrapeInterval = 15 * time.Second

type MetricsConfig struct {
	Enabled bool
	// Addr serves /metrics on a separate listener when set.
	Addr           string
	ScrapeInterval time.Duration
}

// Metrics holds the process-wide forum counters. Every method is safe on a
// nil receiver so callers need not check whether metrics are enabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec

	postsCreated  *CounterVec
	postsFlagged  *CounterVec
	interactions  *CounterVec
	flagsReviewed *CounterVec
	completions   *CounterVec
	unlocks       *CounterVec
	rankingErrors *CounterVec

	dbStats   *GaugeVec
	redisUp   *GaugeVec
	redisPing *GaugeVec

	interval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// InitMetrics builds the process metrics once. It returns nil when disabled.
func InitMetrics(log *logger.Logger, cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics(cfg.ScrapeInterval)
		if log != nil {
			log.Info("metrics enabled", "addr", cfg.Addr)
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func newMetrics(interval time.Duration) *Metrics {
	if interval <= 0 {
		interval = defaultScrapeInterval
	}
	return &Metrics{
		apiRequests: NewCounterVec("tg_api_requests_total", "API requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tg_api_request_duration_seconds",
			"API request latency in seconds.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		),
		apiInflight:   NewGaugeVec("tg_api_inflight_requests", "In-flight API requests.", nil),
		postsCreated:  NewCounterVec("tg_posts_created_total", "Posts created by category and type.", []string{"category", "post_type"}),
		postsFlagged:  NewCounterVec("tg_posts_auto_flagged_total", "Posts flagged by spam detection.", []string{"category"}),
		interactions:  NewCounterVec("tg_post_interactions_total", "Likes, shares, bookmarks and replies.", []string{"kind"}),
		flagsReviewed: NewCounterVec("tg_flags_reviewed_total", "Moderation flags closed by outcome.", []string{"status"}),
		completions:   NewCounterVec("tg_curriculum_completions_total", "Completed learning modules.", []string{"pillar"}),
		unlocks:       NewCounterVec("tg_curriculum_unlocks_total", "Curriculum levels unlocked.", []string{"pillar"}),
		rankingErrors: NewCounterVec("tg_ranking_cache_errors_total", "Failed ranking cache operations.", []string{"op"}),
		dbStats:       NewGaugeVec("tg_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:       NewGaugeVec("tg_redis_up", "1 when the ranking cache answers ping.", nil),
		redisPing:     NewGaugeVec("tg_redis_ping_seconds", "Ranking cache ping latency.", nil),
		interval:      interval,
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

func (m *Metrics) IncPostCreated(category, postType string) {
	if m == nil {
		return
	}
	m.postsCreated.Inc(category, postType)
}

func (m *Metrics) IncPostAutoFlagged(category string) {
	if m == nil {
		return
	}
	m.postsFlagged.Inc(category)
}

// IncInteraction counts kind: like, share, bookmark or reply.
func (m *Metrics) IncInteraction(kind string) {
	if m == nil {
		return
	}
	m.interactions.Inc(kind)
}

func (m *Metrics) IncFlagReviewed(status string) {
	if m == nil {
		return
	}
	m.flagsReviewed.Inc(status)
}

func (m *Metrics) ObserveCompletion(pillar string, unlocked int) {
	if m == nil {
		return
	}
	m.completions.Inc(pillar)
	if unlocked > 0 {
		m.unlocks.Add(float64(unlocked), pillar)
	}
}

func (m *Metrics) IncRankingError(op string) {
	if m == nil {
		return
	}
	m.rankingErrors.Inc(op)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, s := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.postsCreated, m.postsFlagged, m.interactions, m.flagsReviewed,
		m.completions, m.unlocks, m.rankingErrors,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer exposes /metrics on addr until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

// StartDBCollector samples the connection pool every scrape interval.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	m.every(ctx, func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("metrics: db stats unavailable", "error", err)
			}
			return
		}
		stats := sqlDB.Stats()
		m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
		m.dbStats.Set(float64(stats.InUse), "in_use")
		m.dbStats.Set(float64(stats.Idle), "idle")
		m.dbStats.Set(float64(stats.WaitCount), "wait_count")
		m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

// StartRedisCollector pings the ranking cache every scrape interval.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *redis.Options) {
	if m == nil || opts == nil || opts.Addr == "" {
		return
	}
	rdb := redis.NewClient(opts)
	context.AfterFunc(ctx, func() { _ = rdb.Close() })
	m.every(ctx, func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
