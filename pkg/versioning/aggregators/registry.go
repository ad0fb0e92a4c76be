package aggregators

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotImplemented is returned when no aggregation function exists
// for a stage. Statistics for an unknown stage cannot be guessed, so
// callers must treat this as fatal.
var ErrNotImplemented = errors.New("statistics aggregation not implemented for this data stage")

// Func consumes the records of one media title and returns its
// per-year statistics.
type Func func(title string, lines <-chan string) ([]YearStats, error)

// Registry is a thread-safe store of aggregation functions keyed by
// stage label.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
	}
}

// Register adds an aggregation function for a stage.
//
// Returns an error for an empty stage label, a nil function, or a
// duplicate registration.
func (r *Registry) Register(stage string, fn Func) error {
	if stage == "" {
		return fmt.Errorf("stage label cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("stage '%s': aggregation function cannot be nil", stage)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[stage]; exists {
		return fmt.Errorf("stage '%s': aggregation function already registered", stage)
	}
	r.funcs[stage] = fn
	return nil
}

// Get looks up the aggregation function for a stage.
func (r *Registry) Get(stage string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[stage]
	if !ok {
		return nil, fmt.Errorf("stage '%s': %w", stage, ErrNotImplemented)
	}
	return fn, nil
}

// Stages returns the labels of every registered stage.
func (r *Registry) Stages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stages := make([]string, 0, len(r.funcs))
	for s := range r.funcs {
		stages = append(stages, s)
	}
	return stages
}

// DefaultRegistry returns a registry with every built-in stage
// aggregator registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for stage, fn := range builtins {
		// Registration of the built-in set cannot fail.
		_ = r.Register(stage, fn)
	}
	return r
}
