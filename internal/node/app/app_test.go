package app

import (
	"testing"

	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/lsm"
	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/memory"
	"github.com/anthanhphan/go-distributed-kv/internal/node/config"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

func TestNewRing(t *testing.T) {
	ring, err := newRing(config.ClusterConfig{Nodes: []config.NodeConfig{
		{ID: 0, Host: "10.0.0.1", GRPCPort: 8081, Partitions: []int{0, 2}},
		{ID: 1, Host: "10.0.0.2", GRPCPort: 8082, Partitions: []int{1, 3}},
	}})
	if err != nil {
		t.Fatalf("newRing failed: %v", err)
	}
	if ring.NumPartitions() != 4 {
		t.Fatalf("expected 4 partitions, got %d", ring.NumPartitions())
	}

	owner, ok := ring.PartitionOwner(3)
	if !ok || owner.ID != 1 {
		t.Fatalf("expected node 1 to own partition 3, got %+v", owner)
	}
	if owner.Addr != "10.0.0.2:8082" {
		t.Errorf("unexpected addr %q", owner.Addr)
	}
	if owner.Status != shard.NodeStatusHealthy {
		t.Errorf("expected healthy node, got %s", owner.Status)
	}
}

func TestNewRing_Gap(t *testing.T) {
	_, err := newRing(config.ClusterConfig{Nodes: []config.NodeConfig{
		{ID: 0, Host: "10.0.0.1", GRPCPort: 8081, Partitions: []int{0, 2}},
	}})
	if err == nil {
		t.Fatal("expected error for partition gap")
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := newEngine(config.StoreConfig{Name: "sessions"}, config.LSMConfig{})
	if err != nil {
		t.Fatalf("newEngine failed: %v", err)
	}
	if _, ok := engine.(*memory.Engine); !ok {
		t.Fatalf("expected memory engine by default, got %T", engine)
	}

	lsmCfg := config.LSMConfig{DataDir: t.TempDir(), CompactionThreshold: 8}
	engine, err = newEngine(config.StoreConfig{Name: "users", Engine: config.EngineLSM}, lsmCfg)
	if err != nil {
		t.Fatalf("newEngine failed: %v", err)
	}
	defer engine.Close()
	if _, ok := engine.(*lsm.LSMAdapter); !ok {
		t.Fatalf("expected lsm engine, got %T", engine)
	}
	if engine.Name() != "users" {
		t.Errorf("expected name users, got %q", engine.Name())
	}
}
