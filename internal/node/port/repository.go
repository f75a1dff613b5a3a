package port

import (
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
)

//go:generate mockgen -destination=../service/mocks/repository_mock.go -package=mocks -source=repository.go

// StoreRepository resolves handles to the stores of other nodes.
type StoreRepository interface {
	// HasNodeStore reports whether a handle to the store on nodeID is registered.
	HasNodeStore(storeName string, nodeID domain.NodeID) bool

	// NodeStore returns the handle to the store on nodeID.
	NodeStore(storeName string, nodeID domain.NodeID) (Store, bool)
}

// LocalStores resolves the request-facing stores of this node.
type LocalStores interface {
	// LocalStore returns the store serving storeName on this node.
	LocalStore(storeName string) (Store, bool)
}
