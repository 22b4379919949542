// Package engine drives the active module: it enters modules, runs
// decisions, applies accepted effects to the ledger, and owns the single
// module timer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/random"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/content"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/module"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/rules"
)

const tracerName = "github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/engine"

var (
	// ErrClosed indicates an operation on a closed engine.
	ErrClosed = errors.New("engine is closed")
	// ErrNoActiveModule indicates no module was entered yet.
	ErrNoActiveModule = errors.New("no active module")
	// ErrCannotSkip indicates the active module has no successor.
	ErrCannotSkip = errors.New("module cannot be skipped")
)

// Recorder receives engine metrics.
type Recorder interface {
	ObserveAction(module, action string, accepted bool)
	ObserveCompletion(module string)
	ObserveSkip(module string)
	SetBalance(balance decimal.Decimal)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAction(string, string, bool) {}
func (nopRecorder) ObserveCompletion(string)           {}
func (nopRecorder) ObserveSkip(string)                 {}
func (nopRecorder) SetBalance(decimal.Decimal)         {}

// Screen is what the navigation surface renders for the active module.
type Screen struct {
	Module   ledger.ModuleID `json:"module"`
	Step     string          `json:"step"`
	Complete bool            `json:"complete"`
	View     any             `json:"view"`
}

// Result is the outcome of one dispatched action.
type Result struct {
	Screen   Screen          `json:"screen"`
	Accepted bool            `json:"accepted"`
	Failures []rules.Failure `json:"failures,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithSeeds sets the per-entry seed source.
func WithSeeds(seeds random.SeedFunc) Option {
	return func(e *Engine) {
		if seeds != nil {
			e.seeds = seeds
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		if recorder != nil {
			e.recorder = recorder
		}
	}
}

// WithSkipEffects sets the effects applied by Skip per module.
func WithSkipEffects(skips map[ledger.ModuleID]content.SkipEffects) Option {
	return func(e *Engine) {
		e.skips = skips
	}
}

// Engine serializes all learner interaction. One engine serves one learner.
type Engine struct {
	mu       sync.Mutex
	registry *module.Registry
	ledger   ledger.Store
	skips    map[ledger.ModuleID]content.SkipEffects
	clock    Clock
	seeds    random.SeedFunc
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer

	active ledger.ModuleID
	module module.Module
	state  any
	seed   int64

	timer      Timer
	generation uint64
	closed     bool
}

// New builds an engine over registry and store. No module is active until
// Enter is called.
func New(registry *module.Registry, store ledger.Store, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, errors.New("module registry is required")
	}
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	e := &Engine{
		registry: registry,
		ledger:   store,
		clock:    RealClock(),
		seeds:    random.NewSeed,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recorder.SetBalance(store.State().Balance)
	return e, nil
}

// Active returns the active module id, or "" before the first Enter.
func (e *Engine) Active() ledger.ModuleID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Enter makes id the active module with fresh local state. Re-entering the
// active module also resets it. A pending timer is cancelled.
func (e *Engine) Enter(ctx context.Context, id ledger.ModuleID) (Screen, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Enter", trace.WithAttributes(attribute.String("module", string(id))))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Screen{}, ErrClosed
	}
	screen, err := e.enterLocked(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return screen, err
}

// Dispatch handles action in module id, entering it first when it is not the
// active module. An empty id targets the active module.
func (e *Engine) Dispatch(ctx context.Context, id ledger.ModuleID, action module.Action) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Dispatch", trace.WithAttributes(
		attribute.String("module", string(id)),
		attribute.String("action", action.Type),
	))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Result{}, ErrClosed
	}
	if id == "" {
		id = e.active
	}
	if id == "" {
		return Result{}, ErrNoActiveModule
	}
	if id != e.active || e.module == nil {
		if _, err := e.enterLocked(ctx, id); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Result{}, err
		}
	}
	result := e.dispatchLocked(ctx, action, false)
	span.SetAttributes(attribute.Bool("accepted", result.Accepted))
	return result, nil
}

// Skip force-completes the active module with its configured skip effects
// and enters the next module. A module that is already complete moves on
// without the skip effects.
func (e *Engine) Skip(ctx context.Context) (Screen, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Skip")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Screen{}, ErrClosed
	}
	if e.module == nil {
		return Screen{}, ErrNoActiveModule
	}
	id := e.active
	span.SetAttributes(attribute.String("module", string(id)))
	next, ok := id.Next()
	if !ok {
		return Screen{}, fmt.Errorf("%w: %s", ErrCannotSkip, id)
	}

	e.cancelTimerLocked()
	if e.module.Terminal(e.state) || e.ledger.State().IsCompleted(id) {
		span.SetAttributes(attribute.Bool("already_complete", true))
		return e.enterLocked(ctx, next)
	}
	e.applySkipLocked(ctx, id)
	e.completeLocked(ctx, id)
	e.recorder.ObserveSkip(string(id))
	e.logger.Info("module skipped", zap.String("module", string(id)))
	return e.enterLocked(ctx, next)
}

// Restart resets the ledger and enters the intro.
func (e *Engine) Restart(ctx context.Context) (Screen, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Restart")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Screen{}, ErrClosed
	}
	e.cancelTimerLocked()
	e.ledger.Reset(ctx)
	e.recorder.SetBalance(e.ledger.State().Balance)
	e.logger.Info("session restarted")
	return e.enterLocked(ctx, ledger.ModuleIntro)
}

// Screen renders the active module.
func (e *Engine) Screen() (Screen, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Screen{}, ErrClosed
	}
	if e.module == nil {
		return Screen{}, ErrNoActiveModule
	}
	return e.screenLocked(), nil
}

// Close cancels the pending timer. Later calls fail with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimerLocked()
	e.closed = true
}

func (e *Engine) enterLocked(ctx context.Context, id ledger.ModuleID) (Screen, error) {
	m, err := e.registry.Get(id)
	if err != nil {
		return Screen{}, err
	}
	seed, err := e.seeds()
	if err != nil {
		return Screen{}, fmt.Errorf("enter %s: %w", id, err)
	}
	e.cancelTimerLocked()
	e.active = id
	e.module = m
	e.seed = seed
	e.state = m.Initial(e.envLocked(false))
	e.ledger.SetCurrent(ctx, id)
	e.logger.Debug("module entered", zap.String("module", string(id)))
	return e.screenLocked(), nil
}

func (e *Engine) dispatchLocked(ctx context.Context, action module.Action, scheduled bool) Result {
	id := e.active
	if e.module.Terminal(e.state) {
		e.recorder.ObserveAction(string(id), action.Type, false)
		return Result{
			Screen: e.screenLocked(),
			Failures: []rules.Failure{{
				Code:    module.CodeFinished,
				Message: fmt.Sprintf("module %s is already finished", id),
			}},
		}
	}

	decision := e.module.Decide(e.state, action, e.envLocked(scheduled))
	e.state = decision.State
	accepted := decision.Accepted()
	e.recorder.ObserveAction(string(id), action.Type, accepted)
	if !accepted {
		e.logger.Debug("action rejected",
			zap.String("module", string(id)),
			zap.String("action", action.Type),
			zap.Int("failures", len(decision.Rejections)),
		)
		return Result{Screen: e.screenLocked(), Failures: decision.Rejections}
	}

	if len(decision.Effects) > 0 {
		e.applyLocked(ctx, decision.Effects)
	}
	if e.module.Terminal(e.state) {
		e.cancelTimerLocked()
		e.completeLocked(ctx, id)
	} else if decision.Schedule != nil {
		e.scheduleLocked(id, *decision.Schedule)
	}
	return Result{Screen: e.screenLocked(), Accepted: true}
}

func (e *Engine) applyLocked(ctx context.Context, effects []module.Effect) {
	for _, effect := range effects {
		switch effect.Kind {
		case module.EffectBalance:
			e.ledger.AdjustBalance(ctx, effect.Amount)
		case module.EffectItem:
			e.ledger.AddInventoryItem(ctx, effect.Item)
		case module.EffectBank:
			e.ledger.SetBankDetails(ctx, effect.Bank)
		case module.EffectIdentity:
			e.ledger.SetIdentity(ctx, effect.Identity.FirstName, effect.Identity.LastName)
		case module.EffectAnswer:
			e.ledger.RecordAnswer(ctx, effect.Key, effect.Value)
		default:
			e.logger.Warn("unknown effect kind", zap.String("kind", string(effect.Kind)))
		}
	}
	e.recorder.SetBalance(e.ledger.State().Balance)
}

func (e *Engine) applySkipLocked(ctx context.Context, id ledger.ModuleID) {
	skip, ok := e.skips[id]
	if !ok {
		return
	}
	var effects []module.Effect
	if skip.Balance != nil {
		effects = append(effects, module.AdjustBalance(*skip.Balance))
	}
	for _, item := range skip.Items {
		effects = append(effects, module.AddItem(item))
	}
	if skip.Bank != nil {
		effects = append(effects, module.SetBank(ledger.BankDetails{
			IBAN:     skip.Bank.IBAN,
			BIC:      skip.Bank.BIC,
			BankName: skip.Bank.BankName,
		}))
	}
	if len(effects) > 0 {
		e.applyLocked(ctx, effects)
	}
}

func (e *Engine) completeLocked(ctx context.Context, id ledger.ModuleID) {
	if e.ledger.State().IsCompleted(id) {
		return
	}
	e.ledger.MarkCompleted(ctx, id)
	e.recorder.ObserveCompletion(string(id))
	e.logger.Info("module completed", zap.String("module", string(id)))
}

func (e *Engine) scheduleLocked(id ledger.ModuleID, schedule module.Schedule) {
	e.cancelTimerLocked()
	generation := e.generation
	action := schedule.Action
	e.timer = e.clock.AfterFunc(schedule.After, func() {
		e.fire(id, generation, action)
	})
}

func (e *Engine) fire(id ledger.ModuleID, generation uint64, action module.Action) {
	ctx, span := e.tracer.Start(context.Background(), "engine.Timer", trace.WithAttributes(
		attribute.String("module", string(id)),
		attribute.String("action", action.Type),
	))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.generation != generation || e.active != id {
		return
	}
	e.timer = nil
	result := e.dispatchLocked(ctx, action, true)
	if !result.Accepted {
		e.logger.Warn("scheduled action rejected",
			zap.String("module", string(id)),
			zap.String("action", action.Type),
		)
	}
}

// cancelTimerLocked stops the pending timer. Bumping the generation also
// voids a callback that already started and is waiting for the lock.
func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.generation++
}

func (e *Engine) envLocked(scheduled bool) module.Env {
	return module.Env{
		Ledger:    e.ledger.State(),
		Now:       e.clock.Now(),
		Seed:      e.seed,
		Scheduled: scheduled,
	}
}

func (e *Engine) screenLocked() Screen {
	return Screen{
		Module:   e.active,
		Step:     e.module.Step(e.state),
		Complete: e.module.Terminal(e.state),
		View:     e.module.View(e.state, e.envLocked(false)),
	}
}
