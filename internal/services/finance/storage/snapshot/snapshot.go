// Package snapshot is the codec between ledger state and persisted bytes.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonzim-cmd/zahlungsformen/internal/platform/timeouts"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/storage"
)

const (
	// Key is the fixed storage namespace of the ledger snapshot.
	Key = "finanz-checker-storage"
	// SchemaVersion is the current snapshot layout.
	SchemaVersion = 1
)

// ErrUnsupportedVersion indicates a snapshot written by an unknown layout.
var ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")

type envelope struct {
	SchemaVersion int          `json:"schema_version"`
	State         ledger.State `json:"state"`
}

// Encode serializes state with the current schema version.
func Encode(state ledger.State) ([]byte, error) {
	data, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, State: state})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot. Missing collections come back empty.
func Decode(data []byte) (ledger.State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ledger.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.SchemaVersion != SchemaVersion {
		return ledger.State{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.SchemaVersion)
	}
	state := env.State.Clone()
	completed := state.Completed[:0]
	for _, id := range state.Completed {
		if id.Valid() {
			completed = append(completed, id)
		}
	}
	state.Completed = completed
	if !state.Current.Valid() {
		state.Current = ledger.ModuleIntro
	}
	return state, nil
}

// Persister writes ledger snapshots into a SnapshotStore.
type Persister struct {
	store storage.SnapshotStore
	key   string
}

// NewPersister returns a Persister writing under Key.
func NewPersister(store storage.SnapshotStore) *Persister {
	return &Persister{store: store, key: Key}
}

// Persist encodes and stores state.
func (p *Persister) Persist(ctx context.Context, state ledger.State) error {
	if p == nil || p.store == nil {
		return errors.New("snapshot store is not configured")
	}
	data, err := Encode(state)
	if err != nil {
		return err
	}
	return p.store.PutSnapshot(ctx, p.key, data)
}

// Load reads the persisted ledger state. A missing, unreadable, or
// incompatible snapshot yields fresh defaults; only the latter two are logged.
// An incompatible snapshot is also removed from the store.
func Load(ctx context.Context, store storage.SnapshotStore, logger *zap.Logger) ledger.State {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		return ledger.DefaultState()
	}
	readCtx, cancel := context.WithTimeout(ctx, timeouts.SnapshotRead)
	defer cancel()

	data, err := store.GetSnapshot(readCtx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return ledger.DefaultState()
	}
	if err != nil {
		logger.Warn("read ledger snapshot", zap.Error(err))
		return ledger.DefaultState()
	}
	state, err := Decode(data)
	if err != nil {
		logger.Warn("discard ledger snapshot", zap.Error(err))
		if err := store.DeleteSnapshot(readCtx, Key); err != nil {
			logger.Warn("delete discarded ledger snapshot", zap.Error(err))
		}
		return ledger.DefaultState()
	}
	logger.Info("ledger snapshot restored",
		zap.String("session_id", state.SessionID),
		zap.Int("completed", len(state.Completed)),
	)
	return state
}
