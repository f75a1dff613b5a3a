package memory

import (
	"context"
	"sync"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
)

// Engine keeps the siblings of every key in memory.
type Engine struct {
	name string

	mu   sync.RWMutex
	data map[string][]domain.Versioned
}

// Ensure Engine implements port.StorageEngine.
var _ port.StorageEngine = (*Engine)(nil)

func NewEngine(name string) *Engine {
	return &Engine{
		name: name,
		data: make(map[string][]domain.Versioned),
	}
}

func (e *Engine) Name() string {
	return e.name
}

// Get returns copies of the stored siblings so callers cannot mutate them.
func (e *Engine) Get(ctx context.Context, key domain.Key) ([]domain.Versioned, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	siblings := e.data[string(key)]
	out := make([]domain.Versioned, 0, len(siblings))
	for _, v := range siblings {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (e *Engine) Put(ctx context.Context, key domain.Key, value domain.Versioned) error {
	outcome, err := e.Apply(ctx, key, value)
	if err != nil {
		return err
	}
	if outcome == domain.Dominated {
		return &domain.ObsoleteVersionError{Key: key.Clone(), Version: value.Version.Clone()}
	}
	return nil
}

// Apply stores value unless a stored sibling is equal to or newer than it.
func (e *Engine) Apply(ctx context.Context, key domain.Key, value domain.Versioned) (domain.ApplyOutcome, error) {
	if err := key.Validate(); err != nil {
		return domain.Applied, err
	}
	if err := value.Validate(); err != nil {
		return domain.Applied, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	siblings, outcome := domain.ApplyVersion(e.data[string(key)], value.Clone())
	if outcome == domain.Applied {
		e.data[string(key)] = siblings
	}
	return outcome, nil
}

func (e *Engine) Delete(ctx context.Context, key domain.Key, version domain.VectorClock) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	kept, removed := domain.RemoveVersions(e.data[string(key)], version)
	if !removed {
		return false, nil
	}
	if len(kept) == 0 {
		delete(e.data, string(key))
	} else {
		e.data[string(key)] = kept
	}
	return true, nil
}

// Len returns the number of keys holding at least one version.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.data)
}

func (e *Engine) Close() error {
	return nil
}
