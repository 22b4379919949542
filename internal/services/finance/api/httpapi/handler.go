// Package httpapi exposes the learning modules over HTTP.
//
// Every module route path enters its module on GET and accepts actions on
// POST <path>/actions. Paths are resolved against the course catalog, so a
// content override can move modules. Unknown paths redirect to the intro.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/engine"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

const maxBodyBytes = 64 << 10

// Engine is the module driver the handlers call.
type Engine interface {
	Enter(ctx context.Context, id ledger.ModuleID) (engine.Screen, error)
	Dispatch(ctx context.Context, id ledger.ModuleID, action module.Action) (engine.Result, error)
	Skip(ctx context.Context) (engine.Screen, error)
	Restart(ctx context.Context) (engine.Screen, error)
	Screen() (engine.Screen, error)
}

// LedgerReader reads the learner ledger.
type LedgerReader interface {
	State() ledger.State
}

// Config wires the handler.
type Config struct {
	Engine      Engine
	Ledger      LedgerReader
	Course      *content.Course
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
	EnableAdmin bool
}

type handler struct {
	engine Engine
	ledger LedgerReader
	course *content.Course
	logger *zap.Logger
}

// NewHandler builds the router.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if cfg.Course == nil {
		return nil, errors.New("course is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &handler{engine: cfg.Engine, ledger: cfg.Ledger, course: cfg.Course, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/api/state", h.handleState)
	r.Post("/api/restart", h.handleRestart)
	if cfg.EnableAdmin {
		r.Post("/api/admin/skip", h.handleSkip)
	}

	r.Get("/*", h.handleEnter)
	r.Post("/*", h.handleDispatch)
	r.NotFound(redirectHome)

	return otelhttp.NewHandler(r, "finanzcheck.http"), nil
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// actionTarget maps "<module path>/actions" back to the module path.
func actionTarget(path string) (string, bool) {
	base, ok := strings.CutSuffix(path, "/actions")
	if !ok {
		return "", false
	}
	if base == "" {
		base = "/"
	}
	return base, true
}

func (h *handler) handleEnter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.course.ModuleForPath(r.URL.Path)
	if !ok {
		redirectHome(w, r)
		return
	}
	screen, err := h.engine.Enter(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	path, ok := actionTarget(r.URL.Path)
	var id ledger.ModuleID
	if ok {
		id, ok = h.course.ModuleForPath(path)
	}
	if !ok {
		redirectHome(w, r)
		return
	}
	var action module.Action
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action body")
		return
	}
	if strings.TrimSpace(action.Type) == "" {
		writeError(w, http.StatusBadRequest, "action type is required")
		return
	}
	result, err := h.engine.Dispatch(r.Context(), id, action)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	screen, err := h.engine.Restart(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	screen, err := h.engine.Skip(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

type moduleEntry struct {
	ID        ledger.ModuleID `json:"id"`
	Label     string          `json:"label"`
	Path      string          `json:"path"`
	Completed bool            `json:"completed"`
}

type stateResponse struct {
	SessionID        string             `json:"session_id,omitempty"`
	Balance          string             `json:"balance"`
	BalanceFormatted string             `json:"balance_formatted"`
	Inventory        []string           `json:"inventory"`
	Identity         ledger.Identity    `json:"identity"`
	Bank             ledger.BankDetails `json:"bank"`
	Progress         int                `json:"progress"`
	Current          ledger.ModuleID    `json:"current"`
	Modules          []moduleEntry      `json:"modules"`
	Screen           *engine.Screen     `json:"screen,omitempty"`
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	state := h.ledger.State()
	resp := stateResponse{
		SessionID:        state.SessionID,
		Balance:          state.Balance.StringFixed(money.Places),
		BalanceFormatted: money.Format(state.Balance),
		Inventory:        state.Inventory,
		Identity:         state.Identity,
		Bank:             state.Bank,
		Progress:         state.Progress(),
		Current:          state.Current,
	}
	for _, info := range h.course.Modules {
		resp.Modules = append(resp.Modules, moduleEntry{
			ID:        info.ID,
			Label:     info.Label,
			Path:      info.Path,
			Completed: state.IsCompleted(info.ID),
		})
	}
	if screen, err := h.engine.Screen(); err == nil {
		resp.Screen = &screen
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, module.ErrModuleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrCannotSkip), errors.Is(err, engine.ErrNoActiveModule):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("engine operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": msg},
	})
}
