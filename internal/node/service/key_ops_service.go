package service

import (
	"context"
	"fmt"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
)

type keyOpsService struct {
	parent *KVServiceImpl
}

func newKeyOpsService(parent *KVServiceImpl) *keyOpsService {
	return &keyOpsService{parent: parent}
}

func (s *keyOpsService) store(name string) (port.Store, error) {
	store, ok := s.parent.stores.LocalStore(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, name)
	}
	return store, nil
}

func (s *keyOpsService) get(ctx context.Context, storeName string, key domain.Key) ([]domain.Versioned, error) {
	store, err := s.store(storeName)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, key)
}

func (s *keyOpsService) put(ctx context.Context, storeName string, key domain.Key, value []byte, version *domain.VectorClock) (domain.VectorClock, error) {
	store, err := s.store(storeName)
	if err != nil {
		return domain.VectorClock{}, err
	}

	var next domain.VectorClock
	if version != nil {
		next = version.Clone()
	} else {
		// Reading through the store also pulls in the donor's versions while
		// the key migrates, so the new version descends them too.
		current, err := store.Get(ctx, key)
		if err != nil {
			return domain.VectorClock{}, err
		}
		next = domain.MergedVersion(current).Incremented(s.parent.selfID, s.parent.clock.Now())
	}

	if err := store.Put(ctx, key, domain.NewVersioned(value, next)); err != nil {
		return domain.VectorClock{}, err
	}
	return next, nil
}

func (s *keyOpsService) delete(ctx context.Context, storeName string, key domain.Key, version *domain.VectorClock) (bool, error) {
	store, err := s.store(storeName)
	if err != nil {
		return false, err
	}

	if version != nil {
		return store.Delete(ctx, key, *version)
	}

	current, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if len(current) == 0 {
		return false, nil
	}
	return store.Delete(ctx, key, domain.MergedVersion(current))
}
