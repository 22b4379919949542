// Package finanzcheck parses finance check command flags and starts the
// server.
package finanzcheck

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"

	entrypoint "github.com/jonzim-cmd/zahlungsformen/internal/platform/cmd"
	server "github.com/jonzim-cmd/zahlungsformen/internal/services/finance/app"
)

// Config holds finance check command configuration.
type Config struct {
	Port        int    `env:"FINANZCHECK_PORT"         envDefault:"8090"`
	Addr        string `env:"FINANZCHECK_ADDR"`
	DBPath      string `env:"FINANZCHECK_DB_PATH"      envDefault:"data/finanzcheck.db"`
	LogMode     string `env:"FINANZCHECK_LOG_MODE"     envDefault:"development"`
	Seed        int64  `env:"FINANZCHECK_SEED"`
	ContentPath string `env:"FINANZCHECK_CONTENT_PATH"`
	EnableAdmin bool   `env:"FINANZCHECK_ENABLE_ADMIN"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address (overrides port)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite snapshot path; empty keeps the session in memory")
	fs.StringVar(&cfg.LogMode, "log-mode", cfg.LogMode, "log mode: development or production")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "fixed module entry seed; 0 for random")
	fs.StringVar(&cfg.ContentPath, "content", cfg.ContentPath, "course content TOML override")
	fs.BoolVar(&cfg.EnableAdmin, "enable-admin", cfg.EnableAdmin, "expose the admin skip route")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr resolves the HTTP listen address.
func (c Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.Addr); addr != "" {
		return addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run builds the finance check server and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	options := entrypoint.RunOptions{LogMode: cfg.LogMode}
	return entrypoint.Run(ctx, entrypoint.ServiceFinanceCheck, options, func(ctx context.Context, logger *zap.Logger) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:    cfg.ListenAddr(),
			DBPath:      cfg.DBPath,
			ContentPath: cfg.ContentPath,
			Seed:        cfg.Seed,
			EnableAdmin: cfg.EnableAdmin,
			Logger:      logger,
		}); err != nil {
			return fmt.Errorf("serve finance check: %w", err)
		}
		return nil
	})
}
