package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/config"
	"github.com/jonzim-cmd/zahlungsformen/internal/platform/logging"
	"github.com/jonzim-cmd/zahlungsformen/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// ServiceFinanceCheck names the simulation service in telemetry and logs.
const ServiceFinanceCheck = "finanzcheck"

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// LogMode selects the zap encoder, see logging.New.
	LogMode string
	// ShutdownTimeout sets the timeout used when stopping telemetry.
	ShutdownTimeout time.Duration
}

// LogPrefix is the standard logger prefix for service, e.g. "[FINANZCHECK] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// ParseConfig loads .env overrides and environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// Run builds the service logger, configures tracing, and executes run. The
// logger is named after the service and flushed on return.
func Run(ctx context.Context, service string, options RunOptions, run func(context.Context, *zap.Logger) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	logger, err := logging.New(options.LogMode)
	if err != nil {
		return err
	}
	logger = logger.Named(service)
	defer func() { _ = logger.Sync() }()

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownTimeout := options.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx, logger)
}
