package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.NodeID = 1
	cfg.Cluster.Nodes = []NodeConfig{
		{ID: 0, Host: "127.0.0.1", GRPCPort: 8081, Partitions: []int{0, 2}},
		{ID: 1, Host: "127.0.0.1", GRPCPort: 8082, Partitions: []int{1, 3}},
	}
	cfg.Stores = []StoreConfig{{Name: "users", ReplicationFactor: 2, Engine: EngineMemory}}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "NoNodes", mutate: func(c *Config) { c.Cluster.Nodes = nil }, wantErr: "cluster.nodes"},
		{name: "SelfMissing", mutate: func(c *Config) { c.Server.NodeID = 7 }, wantErr: "server.node_id"},
		{name: "NoStores", mutate: func(c *Config) { c.Stores = nil }, wantErr: "stores"},
		{name: "DuplicateStore", mutate: func(c *Config) { c.Stores = append(c.Stores, c.Stores[0]) }, wantErr: "defined twice"},
		{name: "UnknownEngine", mutate: func(c *Config) { c.Stores[0].Engine = "rocks" }, wantErr: "unknown engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingDefaultFallsBack(t *testing.T) {
	t.Setenv("ENV", "does-not-exist")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if cfg.Remote.TimeoutMs != 5000 {
		t.Errorf("expected default timeout 5000, got %d", cfg.Remote.TimeoutMs)
	}
}

func TestLoad_ExplicitMissingPathFails(t *testing.T) {
	if _, err := Load("/nonexistent/node.yaml"); err == nil {
		t.Fatal("expected error for explicit missing path")
	}
}
