package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath     string `env:"DATA_PATH"`
	LogDir       string `env:"LOGS_FOLDER"`
	ReferenceDir string `env:"REFERENCE_DIR"`

	HoverFrameInterval time.Duration `env:"HOVER_FRAME_INTERVAL" envDefault:"16ms"`
	LeaveClearDelay    time.Duration `env:"LEAVE_CLEAR_DELAY"    envDefault:"80ms"`

	EnableMermaidCharts bool  `env:"ENABLE_MERMAID_CHARTS" envDefault:"false"`
	MaxUploadBytes      int64 `env:"MAX_UPLOAD_BYTES"      envDefault:"10485760"`

	// MetricsAddr enables a Prometheus listener, e.g. "127.0.0.1:9464".
	MetricsAddr string `env:"METRICS_ADDR"`

	// Tracing is exported over OTLP/HTTP only when an endpoint is set.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exeDir := ""
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return Parse(exeDir)
}

// Parse reads the environment into an AppConfig. Relative defaults for the
// data and log folders are anchored at baseDir, or the working directory
// when baseDir is empty.
func Parse(baseDir string) (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataPath == "" {
		cfg.DataPath = baseDir
		if cfg.DataPath == "" {
			cfg.DataPath = "."
		}
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.DataPath, "logs")
	}

	if cfg.HoverFrameInterval < 0 || cfg.LeaveClearDelay < 0 {
		return nil, fmt.Errorf("parse env: negative selection delay (frame %s, leave %s)", cfg.HoverFrameInterval, cfg.LeaveClearDelay)
	}

	return &cfg, nil
}
