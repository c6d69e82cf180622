package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/curriculum"
	"github.com/yungbote/tradeguild-backend/internal/data/cache"
	"github.com/yungbote/tradeguild-backend/internal/data/db"
	server "github.com/yungbote/tradeguild-backend/internal/http"
	"github.com/yungbote/tradeguild-backend/internal/observability"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	ranking      cache.Ranking
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.InitMetrics(log, cfg.Metrics)

	dbs, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbs.DB()

	ranking := cache.NewNoopRanking()
	if cfg.Redis.Addr != "" {
		r, err := cache.NewRedisRanking(ctx, cfg.Redis, log)
		if err != nil {
			// Top posts fall back to the database without the cache.
			log.Warn("Ranking cache unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		} else {
			ranking = r
		}
	}

	catalog, err := curriculum.LoadCatalog(cfg.CurriculumDir, log)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	reposet := wireRepos(theDB, log)
	seeded, err := seedCategories(ctx, reposet.Category)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}
	log.Info("Categories seeded", "count", seeded)

	serviceset := wireServices(theDB, log, reposet, ranking, catalog)
	handlerset := wireHandlers(log, serviceset)
	router := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbs,
		ranking:      ranking,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: collectors, the metrics listener and the
// optional ranking rebuild.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Cfg.Redis.Addr != "" {
		a.Metrics.StartRedisCollector(ctx, a.Log, &goredis.Options{
			Addr:     a.Cfg.Redis.Addr,
			Password: a.Cfg.Redis.Password,
			DB:       a.Cfg.Redis.DB,
		})
	}

	if a.Cfg.RescoreOnStart {
		go func() {
			start := time.Now()
			n, err := a.Services.Forum.RescoreCategory(ctx, "")
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					a.Log.Warn("Startup rescore failed", "error", err)
				}
				return
			}
			a.Log.Info("Startup rescore finished", "posts", n, "duration_ms", time.Since(start).Milliseconds())
		}()
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &server.Server{Engine: a.Router}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return srv.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.ranking != nil {
		if err := a.ranking.Close(); err != nil {
			a.Log.Warn("Ranking cache close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OpenTelemetry shutdown failed", "error", err)
		}
		cancel()
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
