// Package app wires content, storage, the ledger, the engine, and the HTTP
// surface into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/logging"
	"github.com/jonzim-cmd/zahlungsformen/internal/platform/random"
	"github.com/jonzim-cmd/zahlungsformen/internal/platform/timeouts"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/api/httpapi"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/engine"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/modules"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/metrics"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/storage"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/storage/memory"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/storage/snapshot"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/storage/sqlite"
)

// Config configures the finance check server.
type Config struct {
	HTTPAddr string
	// DBPath is the SQLite file. Empty keeps the session in memory only.
	DBPath      string
	ContentPath string
	// Seed fixes module entry seeds; zero draws them from crypto/rand.
	Seed            int64
	EnableAdmin     bool
	Logger          *zap.Logger
	ShutdownTimeout time.Duration
}

// Server is a ready-to-run finance check server.
type Server struct {
	httpAddr        string
	httpServer      *http.Server
	engine          *engine.Engine
	ledger          *ledger.Ledger
	closeStore      func() error
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer loads content, rehydrates the ledger, and builds the handler.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	logger := logging.OrNop(cfg.Logger)

	course, err := loadCourse(cfg.ContentPath)
	if err != nil {
		return nil, err
	}
	registry, err := modules.NewRegistry(course)
	if err != nil {
		return nil, fmt.Errorf("build modules: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(promRegistry)

	book := ledger.New(snapshot.Load(ctx, store, logger),
		ledger.WithPersister(snapshot.NewPersister(store)),
		ledger.WithLogger(logger),
		ledger.WithPersistFailureHook(recorder.PersistFailed),
	)
	eng, err := engine.New(registry, book,
		engine.WithSeeds(random.Source(cfg.Seed)),
		engine.WithLogger(logger),
		engine.WithRecorder(recorder),
		engine.WithSkipEffects(course.Skip),
	)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if _, err := eng.Enter(ctx, book.State().Current); err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("enter %s: %w", book.State().Current, err)
	}

	handler, err := httpapi.NewHandler(httpapi.Config{
		Engine:      eng,
		Ledger:      book,
		Course:      course,
		Gatherer:    promRegistry,
		Logger:      logger,
		EnableAdmin: cfg.EnableAdmin,
	})
	if err != nil {
		eng.Close()
		_ = closeStore()
		return nil, fmt.Errorf("build handler: %w", err)
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = timeouts.Shutdown
	}
	return &Server{
		httpAddr: strings.TrimSpace(cfg.HTTPAddr),
		httpServer: &http.Server{
			Addr:              strings.TrimSpace(cfg.HTTPAddr),
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		engine:          eng,
		ledger:          book,
		closeStore:      closeStore,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

func loadCourse(path string) (*content.Course, error) {
	if strings.TrimSpace(path) == "" {
		course, err := content.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded content: %w", err)
		}
		return course, nil
	}
	course, err := content.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load content %s: %w", path, err)
	}
	return course, nil
}

func openStore(ctx context.Context, path string) (storage.SnapshotStore, func() error, error) {
	if strings.TrimSpace(path) == "" {
		return memory.New(), func() error { return nil }, nil
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return store, store.Close, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Ledger returns the learner ledger.
func (s *Server) Ledger() *ledger.Ledger {
	return s.ledger
}

// Run builds a server and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init finance check server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve finance check: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until ctx
// ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("finance check server is nil")
	}
	listener, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve runs the HTTP server on listener until ctx ends, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if s == nil {
		return errors.New("finance check server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	s.logger.Info("finance check listening", zap.String("addr", listener.Addr().String()))
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close stops the engine timer and releases the snapshot store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.engine.Close()
	if err := s.closeStore(); err != nil {
		s.logger.Warn("close snapshot store", zap.Error(err))
	}
	_ = s.logger.Sync()
}
