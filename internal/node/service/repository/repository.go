package repository

import (
	"errors"
	"sort"
	"sync"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

// NodeStoreFactory creates handles to the stores of other nodes.
type NodeStoreFactory interface {
	StoreFor(storeName string, node shard.Node) port.Store
}

type nodeStoreKey struct {
	store string
	node  domain.NodeID
}

// Repository owns every store of the node: storage engines, the
// request-facing local stores wrapping them and handles to the stores of
// other nodes.
type Repository struct {
	selfID  domain.NodeID
	factory NodeStoreFactory

	mu          sync.RWMutex
	engines     map[string]port.StorageEngine
	localStores map[string]port.Store
	nodeStores  map[nodeStoreKey]port.Store
}

var (
	_ port.StoreRepository = (*Repository)(nil)
	_ port.LocalStores     = (*Repository)(nil)
)

func New(selfID domain.NodeID, factory NodeStoreFactory) *Repository {
	return &Repository{
		selfID:      selfID,
		factory:     factory,
		engines:     make(map[string]port.StorageEngine),
		localStores: make(map[string]port.Store),
		nodeStores:  make(map[nodeStoreKey]port.Store),
	}
}

func (r *Repository) AddStorageEngine(engine port.StorageEngine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[engine.Name()] = engine
}

func (r *Repository) StorageEngine(name string) (port.StorageEngine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	return e, ok
}

// StoreNames returns the names of all storage engines, sorted.
func (r *Repository) StoreNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Repository) AddLocalStore(store port.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localStores[store.Name()] = store
}

// LocalStore returns the store serving client and peer requests.
func (r *Repository) LocalStore(name string) (port.Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.localStores[name]
	return s, ok
}

func (r *Repository) AddNodeStore(nodeID domain.NodeID, store port.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodeStores[nodeStoreKey{store: store.Name(), node: nodeID}] = store
}

func (r *Repository) HasNodeStore(storeName string, nodeID domain.NodeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodeStores[nodeStoreKey{store: storeName, node: nodeID}]
	return ok
}

func (r *Repository) NodeStore(storeName string, nodeID domain.NodeID) (port.Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.nodeStores[nodeStoreKey{store: storeName, node: nodeID}]
	return s, ok
}

// RegisterNode creates a handle for every store on node. Handles that
// already exist are replaced so a changed address takes effect.
func (r *Repository) RegisterNode(node shard.Node) {
	id := domain.NodeID(node.ID)
	if id == r.selfID || r.factory == nil {
		return
	}

	for _, name := range r.StoreNames() {
		store := r.factory.StoreFor(name, node)

		r.mu.Lock()
		old := r.nodeStores[nodeStoreKey{store: name, node: id}]
		r.nodeStores[nodeStoreKey{store: name, node: id}] = store
		r.mu.Unlock()

		if old != nil && old != store {
			_ = old.Close()
		}
	}
	logger.Debugw("Node stores registered", "node_id", node.ID, "addr", node.Addr)
}

// UnregisterNode drops every handle to node.
func (r *Repository) UnregisterNode(nodeID domain.NodeID) {
	r.mu.Lock()
	var dropped []port.Store
	for key, store := range r.nodeStores {
		if key.node == nodeID {
			dropped = append(dropped, store)
			delete(r.nodeStores, key)
		}
	}
	r.mu.Unlock()

	for _, store := range dropped {
		_ = store.Close()
	}
	if len(dropped) > 0 {
		logger.Debugw("Node stores unregistered", "node_id", nodeID, "stores", len(dropped))
	}
}

// NodeJoined and NodeLeft keep node stores in step with cluster membership.
func (r *Repository) NodeJoined(node shard.Node) {
	r.RegisterNode(node)
}

func (r *Repository) NodeLeft(nodeID int) {
	r.UnregisterNode(domain.NodeID(nodeID))
}

// Close closes local stores (and with them the engines they wrap) and every
// node store handle.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, store := range r.localStores {
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.engines, name)
	}
	for _, engine := range r.engines {
		if err := engine.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, store := range r.nodeStores {
		_ = store.Close()
	}
	r.nodeStores = make(map[nodeStoreKey]port.Store)
	return errors.Join(errs...)
}
