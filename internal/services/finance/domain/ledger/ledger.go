package ledger

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/timeouts"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/money"
)

// Store is the mutator surface of the ledger.
type Store interface {
	State() State
	SetIdentity(ctx context.Context, first, last string)
	SetBankDetails(ctx context.Context, details BankDetails)
	RecordAnswer(ctx context.Context, key, value string)
	MarkCompleted(ctx context.Context, id ModuleID)
	AdjustBalance(ctx context.Context, delta decimal.Decimal)
	AddInventoryItem(ctx context.Context, name string)
	SetCurrent(ctx context.Context, id ModuleID)
	Reset(ctx context.Context)
}

// Persister writes full ledger snapshots.
type Persister interface {
	Persist(ctx context.Context, state State) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPersister sets the snapshot destination.
func WithPersister(p Persister) Option {
	return func(l *Ledger) { l.persister = p }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPersistFailureHook is called after each failed snapshot write.
func WithPersistFailureHook(fn func(error)) Option {
	return func(l *Ledger) { l.onPersistFailure = fn }
}

// WithSessionIDs overrides session id generation.
func WithSessionIDs(fn func() string) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.newSessionID = fn
		}
	}
}

// Ledger is the in-process Store implementation.
type Ledger struct {
	mu               sync.Mutex
	state            State
	persister        Persister
	logger           *zap.Logger
	onPersistFailure func(error)
	newSessionID     func() string
}

var _ Store = (*Ledger)(nil)

// New builds a ledger seeded with initial, typically a rehydrated snapshot.
func New(initial State, opts ...Option) *Ledger {
	l := &Ledger{
		state:        normalizeState(initial),
		logger:       zap.NewNop(),
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns a copy of the current state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// SetIdentity stores the learner's name. Blank names are ignored.
func (l *Ledger) SetIdentity(ctx context.Context, first, last string) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if first == "" || last == "" {
		return
	}
	l.mutate(ctx, func(s *State) {
		s.Identity = Identity{FirstName: first, LastName: last}
		if s.SessionID == "" {
			s.SessionID = l.newSessionID()
		}
	})
}

// SetBankDetails replaces all bank fields together.
func (l *Ledger) SetBankDetails(ctx context.Context, details BankDetails) {
	l.mutate(ctx, func(s *State) { s.Bank = details })
}

// RecordAnswer upserts a free-text answer.
func (l *Ledger) RecordAnswer(ctx context.Context, key, value string) {
	l.mutate(ctx, func(s *State) { s.Answers[key] = value })
}

// MarkCompleted adds id to the completed set. Repeated calls are no-ops.
func (l *Ledger) MarkCompleted(ctx context.Context, id ModuleID) {
	l.mutate(ctx, func(s *State) {
		if !s.IsCompleted(id) {
			s.Completed = append(s.Completed, id)
		}
	})
}

// AdjustBalance adds delta and rounds to cents.
func (l *Ledger) AdjustBalance(ctx context.Context, delta decimal.Decimal) {
	l.mutate(ctx, func(s *State) { s.Balance = money.Round(s.Balance.Add(delta)) })
}

// AddInventoryItem appends name; duplicates are kept.
func (l *Ledger) AddInventoryItem(ctx context.Context, name string) {
	l.mutate(ctx, func(s *State) { s.Inventory = append(s.Inventory, name) })
}

// SetCurrent records the module the learner is working on.
func (l *Ledger) SetCurrent(ctx context.Context, id ModuleID) {
	l.mutate(ctx, func(s *State) { s.Current = id })
}

// Reset restores the state of a fresh session.
func (l *Ledger) Reset(ctx context.Context) {
	l.mutate(ctx, func(s *State) { *s = DefaultState() })
}

func (l *Ledger) mutate(ctx context.Context, fn func(*State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.state)
	l.persist(ctx, l.state.Clone())
}

func (l *Ledger) persist(ctx context.Context, snapshot State) {
	if l.persister == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.SnapshotWrite)
	defer cancel()
	if err := l.persister.Persist(writeCtx, snapshot); err != nil {
		l.logger.Warn("persist ledger snapshot", zap.Error(err))
		if l.onPersistFailure != nil {
			l.onPersistFailure(err)
		}
	}
}

func normalizeState(s State) State {
	out := s.Clone()
	if !out.Current.Valid() {
		out.Current = ModuleIntro
	}
	out.Balance = money.Round(out.Balance)
	return out
}
