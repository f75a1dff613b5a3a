package repository

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/memory"
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/mocks"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

type fakeFactory struct {
	ctrl    *gomock.Controller
	created map[string]*mocks.MockStore
}

func (f *fakeFactory) StoreFor(storeName string, node shard.Node) port.Store {
	m := mocks.NewMockStore(f.ctrl)
	m.EXPECT().Name().Return(storeName).AnyTimes()
	m.EXPECT().Close().Return(nil).AnyTimes()
	f.created[storeName+"@"+node.Addr] = m
	return m
}

func TestRepository_RegisterUnregisterNode(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := &fakeFactory{ctrl: ctrl, created: make(map[string]*mocks.MockStore)}

	repo := New(domain.NodeID(0), factory)
	repo.AddStorageEngine(memory.NewEngine("users"))
	repo.AddStorageEngine(memory.NewEngine("sessions"))

	repo.RegisterNode(shard.Node{ID: 1, Addr: "10.0.0.1:8081"})

	for _, name := range []string{"users", "sessions"} {
		if !repo.HasNodeStore(name, 1) {
			t.Fatalf("expected handle for %s on node 1", name)
		}
	}
	if len(factory.created) != 2 {
		t.Fatalf("expected 2 handles, got %d", len(factory.created))
	}

	repo.NodeLeft(1)
	if repo.HasNodeStore("users", 1) {
		t.Fatalf("expected handle to be dropped")
	}
	if _, ok := repo.NodeStore("users", 1); ok {
		t.Fatalf("expected no node store after unregister")
	}
}

func TestRepository_SkipsSelf(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := &fakeFactory{ctrl: ctrl, created: make(map[string]*mocks.MockStore)}

	repo := New(domain.NodeID(3), factory)
	repo.AddStorageEngine(memory.NewEngine("users"))
	repo.NodeJoined(shard.Node{ID: 3, Addr: "self:8081"})

	if repo.HasNodeStore("users", 3) {
		t.Fatalf("self must not get a remote handle")
	}
}

func TestRepository_ReRegisterReplacesHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := &fakeFactory{ctrl: ctrl, created: make(map[string]*mocks.MockStore)}

	repo := New(domain.NodeID(0), factory)
	repo.AddStorageEngine(memory.NewEngine("users"))

	repo.RegisterNode(shard.Node{ID: 1, Addr: "old:8081"})
	repo.RegisterNode(shard.Node{ID: 1, Addr: "new:8081"})

	got, _ := repo.NodeStore("users", 1)
	if got != factory.created["users@new:8081"] {
		t.Fatalf("expected handle for the new address")
	}
}

func TestRepository_LocalStoresAndClose(t *testing.T) {
	repo := New(domain.NodeID(0), nil)
	engine := memory.NewEngine("users")
	repo.AddStorageEngine(engine)
	repo.AddLocalStore(engine)

	if s, ok := repo.LocalStore("users"); !ok || s.Name() != "users" {
		t.Fatalf("expected local store users")
	}
	if _, ok := repo.StorageEngine("users"); !ok {
		t.Fatalf("expected storage engine users")
	}
	if names := repo.StoreNames(); len(names) != 1 || names[0] != "users" {
		t.Fatalf("unexpected store names %v", names)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
