package module

import (
	"errors"
	"fmt"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/domain/ledger"
)

var (
	// ErrModuleRequired indicates a nil module registration.
	ErrModuleRequired = errors.New("module is required")
	// ErrModuleAlreadyRegistered indicates a duplicate registration.
	ErrModuleAlreadyRegistered = errors.New("module already registered")
	// ErrModuleNotFound indicates a module id with no registration.
	ErrModuleNotFound = errors.New("module is not registered")
)

// Registry holds one Module per id.
type Registry struct {
	modules map[ledger.ModuleID]Module
}

// NewRegistry registers modules.
func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[ledger.ModuleID]Module, len(modules))}
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds m.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return ErrModuleRequired
	}
	id := m.ID()
	if !id.Valid() {
		return fmt.Errorf("register module: %w", ledger.ErrUnknownModule)
	}
	if _, exists := r.modules[id]; exists {
		return fmt.Errorf("%w: %s", ErrModuleAlreadyRegistered, id)
	}
	r.modules[id] = m
	return nil
}

// Get returns the module for id.
func (r *Registry) Get(id ledger.ModuleID) (Module, error) {
	if r == nil {
		return nil, ErrModuleNotFound
	}
	m, ok := r.modules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	return m, nil
}

// ValidateComplete fails unless every module in the fixed order is
// registered.
func (r *Registry) ValidateComplete() error {
	var missing []error
	for _, id := range ledger.Modules() {
		if _, ok := r.modules[id]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrModuleNotFound, id))
		}
	}
	return errors.Join(missing...)
}
