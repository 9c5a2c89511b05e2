package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Draw sources.
const (
	SourceCache     = "cache"
	SourcePostgres  = "postgres"
	SourceDHLottery = "dhlottery"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath string `env:"DATA_PATH"`
	LogDir   string `env:"LOGS_FOLDER"`
	CacheDir string `env:"-"`

	DrawSource            string        `env:"DRAW_SOURCE" envDefault:"dhlottery"`
	PostgresURL           string        `env:"POSTGRES_URL"`
	DHLotteryURL          string        `env:"DHLOTTERY_URL" envDefault:"https://www.dhlottery.co.kr/common.do"`
	DHLotteryRequestDelay time.Duration `env:"DHLOTTERY_REQUEST_DELAY" envDefault:"200ms"`

	RedisURL       string        `env:"REDIS_URL"`
	ResultCacheTTL time.Duration `env:"RESULT_CACHE_TTL" envDefault:"1h"`

	RebuildSchedule string        `env:"REBUILD_SCHEDULE" envDefault:"0 50 20 * * 6"`
	RebuildTimeout  time.Duration `env:"REBUILD_TIMEOUT" envDefault:"10m"`
	AdminAddr       string        `env:"ADMIN_ADDR" envDefault:"127.0.0.1:9464"`
	AdminToken      string        `env:"ADMIN_TOKEN"`

	EnableMermaidCharts bool `env:"ENABLE_MERMAID_CHARTS" envDefault:"false"`
	ScanDetailLimit     int  `env:"SCAN_DETAIL_LIMIT" envDefault:"200"`
	DefaultTopN         int  `env:"DEFAULT_TOP_N" envDefault:"10"`
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. The executable's directory first (MCP hosts start the binary from anywhere)
	exeDir := ""
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Then the working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.resolve(exeDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve fills derived paths, validates enums and creates directories.
func (c *AppConfig) resolve(exeDir string) error {
	if c.DataPath == "" {
		c.DataPath = exeDir
		if c.DataPath == "" {
			c.DataPath = "."
		}
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.DataPath, "logs")
	}
	c.CacheDir = filepath.Join(c.DataPath, "cache")

	switch c.DrawSource {
	case SourceCache, SourceDHLottery:
	case SourcePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("DRAW_SOURCE=postgres requires POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown DRAW_SOURCE %q (want %s, %s or %s)", c.DrawSource, SourceCache, SourcePostgres, SourceDHLottery)
	}
	if c.ScanDetailLimit <= 0 {
		return fmt.Errorf("SCAN_DETAIL_LIMIT must be positive, got %d", c.ScanDetailLimit)
	}

	for _, dir := range []string{c.LogDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}
	return nil
}
