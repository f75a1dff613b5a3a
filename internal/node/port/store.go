package port

import (
	"context"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
)

//go:generate mockgen -destination=../service/mocks/store_mock.go -package=mocks -source=store.go

// Store is the capability shared by storage engines, remote node handles and
// the redirecting decorator. Any of them can stand in for another.
type Store interface {
	// Name returns the store name this instance serves.
	Name() string

	// Get returns every version held for the key. No versions is not an error.
	Get(ctx context.Context, key domain.Key) ([]domain.Versioned, error)

	// Put stores a version of the key. It returns domain.ErrObsoleteVersion
	// when a stored version is equal to or newer than value.Version.
	Put(ctx context.Context, key domain.Key, value domain.Versioned) error

	// Delete removes the versions of the key not newer than version and
	// reports whether anything was removed.
	Delete(ctx context.Context, key domain.Key, version domain.VectorClock) (bool, error)

	// Close releases the resources held by the store.
	Close() error
}

// VersionApplier is implemented by stores that can report a dominated write
// as an outcome instead of an error.
type VersionApplier interface {
	Apply(ctx context.Context, key domain.Key, value domain.Versioned) (domain.ApplyOutcome, error)
}

// StorageEngine is a local store backed by memory or disk.
type StorageEngine interface {
	Store
	VersionApplier
}
