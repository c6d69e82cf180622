package app

import (
	"strings"
	"time"

	"github.com/yungbote/tradeguild-backend/internal/data/cache"
	"github.com/yungbote/tradeguild-backend/internal/data/db"
	"github.com/yungbote/tradeguild-backend/internal/observability"
	"github.com/yungbote/tradeguild-backend/internal/platform/envutil"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type Config struct {
	Port          string
	CORSOrigins   []string
	CurriculumDir string
	// RescoreOnStart rebuilds post scores and the ranking cache at boot.
	RescoreOnStart bool

	DB      db.Config
	Redis   cache.RedisConfig
	Otel    observability.OtelConfig
	Metrics observability.MetricsConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:           envutil.String("PORT", "8080", log),
		CORSOrigins:    splitList(envutil.String("CORS_ORIGINS", "", log)),
		CurriculumDir:  envutil.String("CURRICULUM_DIR", "", log),
		RescoreOnStart: envutil.Bool("RESCORE_ON_START", true, log),
		DB: db.Config{
			Driver:      envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresDSN: envutil.String("POSTGRES_DSN", "", log),
			SQLitePath:  envutil.String("SQLITE_PATH", "tradeguild.db", log),
		},
		Redis: cache.RedisConfig{
			Addr:      envutil.String("REDIS_ADDR", "", log),
			Password:  envutil.String("REDIS_PASSWORD", "", log),
			DB:        envutil.Int("REDIS_DB", 0, log),
			KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "tg:rank", log),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "tradeguild-api", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_TRACES_SAMPLER_RATIO", 0.1, log),
		},
		Metrics: observability.MetricsConfig{
			Enabled:        envutil.Bool("METRICS_ENABLED", false, log),
			Addr:           envutil.String("METRICS_ADDR", ":9090", log),
			ScrapeInterval: envutil.Duration("METRICS_SCRAPE_INTERVAL", 15*time.Second, log),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
