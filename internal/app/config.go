package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/graphloader/internal/data/runlog"
	"github.com/yungbote/graphloader/internal/modules/ingestion"
	"github.com/yungbote/graphloader/internal/platform/envutil"
	"github.com/yungbote/graphloader/internal/platform/logger"
	"github.com/yungbote/graphloader/internal/platform/neo4jdb"
	"github.com/yungbote/graphloader/internal/realtime/bus"
)

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type Config struct {
	LogMode     string `yaml:"log_mode"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Port        string `yaml:"port"`
	// MetricsAddr serves /metrics on its own listener, for the CLI.
	MetricsAddr string `yaml:"metrics_addr"`

	Neo4j  neo4jdb.Config   `yaml:"neo4j"`
	Ingest ingestion.Config `yaml:"ingest"`
	RunLog runlog.Config    `yaml:"runlog"`
	Redis  RedisConfig      `yaml:"redis"`
}

func defaultConfig() Config {
	return Config{
		LogMode:     "development",
		ServiceName: "graphloader",
		Environment: "local",
		Port:        "8080",
		Neo4j: neo4jdb.Config{
			User:        "neo4j",
			Timeout:     10 * time.Second,
			MaxPoolSize: 50,
		},
		Ingest: ingestion.Config{
			Concurrency:   ingestion.DefaultConcurrency,
			UpsertTimeout: ingestion.DefaultUpsertTimeout,
		},
		Redis: RedisConfig{Channel: bus.DefaultChannel},
	}
}

// LoadConfig starts from defaults, applies the YAML file named by
// GRAPHLOADER_CONFIG when set, then lets environment variables override.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("GRAPHLOADER_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment)
	cfg.Version = envutil.String("APP_VERSION", cfg.Version)
	cfg.Port = strings.TrimPrefix(envutil.String("PORT", cfg.Port), ":")
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)

	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.Timeout = envutil.Duration("NEO4J_TIMEOUT_SECONDS", cfg.Neo4j.Timeout)
	cfg.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", cfg.Neo4j.MaxPoolSize)

	cfg.Ingest.Concurrency = envutil.Int("INGEST_CONCURRENCY", cfg.Ingest.Concurrency)
	cfg.Ingest.UpsertTimeout = envutil.Duration("INGEST_UPSERT_TIMEOUT", cfg.Ingest.UpsertTimeout)

	cfg.RunLog.DSN = envutil.String("RUNLOG_DSN", cfg.RunLog.DSN)
	cfg.RunLog.SQLitePath = envutil.String("RUNLOG_SQLITE_PATH", cfg.RunLog.SQLitePath)
	cfg.RunLog.TextPath = envutil.String("RUNLOG_TEXT_PATH", cfg.RunLog.TextPath)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)
}
