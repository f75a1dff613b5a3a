package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

const (
	EngineMemory = "memory"
	EngineLSM    = "lsm"
)

// Config holds KV node configuration
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`
	Stores  []StoreConfig `json:"stores" yaml:"stores"`
	Gossip  GossipConfig  `json:"gossip" yaml:"gossip"`
	LSM     LSMConfig     `json:"lsm" yaml:"lsm"`
	Remote  RemoteConfig  `json:"remote" yaml:"remote"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Logger  logger.Config `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	NodeID   int    `json:"node_id" yaml:"node_id"`
	Hostname string `json:"hostname" yaml:"hostname"`
	GRPCPort int    `json:"grpc_port" yaml:"grpc_port"`
	HTTPPort int    `json:"http_port" yaml:"http_port"`
}

// ClusterConfig is the static partition layout. Every partition id in
// [0, total) must be listed exactly once.
type ClusterConfig struct {
	Nodes []NodeConfig `json:"nodes" yaml:"nodes"`
}

type NodeConfig struct {
	ID         int    `json:"id" yaml:"id"`
	Host       string `json:"host" yaml:"host"`
	GRPCPort   int    `json:"grpc_port" yaml:"grpc_port"`
	Partitions []int  `json:"partitions" yaml:"partitions"`
}

type StoreConfig struct {
	Name              string `json:"name" yaml:"name"`
	ReplicationFactor int    `json:"replication_factor" yaml:"replication_factor"`
	Engine            string `json:"engine" yaml:"engine"`
}

type GossipConfig struct {
	Port  int      `json:"port" yaml:"port"`
	Seeds []string `json:"seeds" yaml:"seeds"`
}

type LSMConfig struct {
	DataDir             string `json:"data_dir" yaml:"data_dir"`
	FSync               bool   `json:"fsync" yaml:"fsync"`
	CompactionThreshold int    `json:"compaction_threshold" yaml:"compaction_threshold"`
}

// RemoteConfig tunes calls to the stores of other nodes.
type RemoteConfig struct {
	TimeoutMs int `json:"timeout_ms" yaml:"timeout_ms"`
}

// RedisConfig enables the shared Redis clock when Addr is set.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Hostname: "127.0.0.1",
			GRPCPort: 8081,
			HTTPPort: 8080,
		},
		Gossip: GossipConfig{
			Port: 7946,
		},
		LSM: LSMConfig{
			DataDir:             "./data",
			CompactionThreshold: 8,
		},
		Remote: RemoteConfig{
			TimeoutMs: 5000,
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Validate checks the parts of the configuration the node cannot start without.
func (c *Config) Validate() error {
	if len(c.Cluster.Nodes) == 0 {
		return errors.New("cluster.nodes must not be empty")
	}
	self := false
	for _, n := range c.Cluster.Nodes {
		if n.ID == c.Server.NodeID {
			self = true
		}
	}
	if !self {
		return fmt.Errorf("server.node_id %d is not part of cluster.nodes", c.Server.NodeID)
	}

	if len(c.Stores) == 0 {
		return errors.New("stores must not be empty")
	}
	seen := make(map[string]bool, len(c.Stores))
	for _, s := range c.Stores {
		if s.Name == "" {
			return errors.New("store name must not be empty")
		}
		if seen[s.Name] {
			return fmt.Errorf("store %q defined twice", s.Name)
		}
		seen[s.Name] = true

		switch s.Engine {
		case "", EngineMemory, EngineLSM:
		default:
			return fmt.Errorf("store %q: unknown engine %q", s.Name, s.Engine)
		}
	}
	return nil
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "node", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not found or failed to parse, using defaults if file not specified. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		return cfg, nil
	}

	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return cfg
}
