package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	grpcHandler "github.com/anthanhphan/go-distributed-kv/internal/node/adapter/inbound/grpc"
	httpHandler "github.com/anthanhphan/go-distributed-kv/internal/node/adapter/inbound/http"
	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/lsm"
	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/memory"
	promadapter "github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/prometheus"
	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/remote"
	"github.com/anthanhphan/go-distributed-kv/internal/node/config"
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/metadata"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/rebalancing"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/repository"
	"github.com/anthanhphan/go-distributed-kv/pkg/clock"
	"github.com/anthanhphan/go-distributed-kv/pkg/gossip"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

type App struct {
	cfg        *config.Config
	grpcServer *grpc.Server
	httpServer *httpHandler.Server
	gossip     port.MembershipPort
	repository *repository.Repository
	client     *remote.ClientAdapter
	redisClock *clock.RedisClock
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	// 3. Partition Ring
	ring, err := newRing(cfg.Cluster)
	if err != nil {
		return nil, fmt.Errorf("failed to build ring: %w", err)
	}

	// 4. Rebalancing metadata
	strategies := make(map[string]port.RoutingStrategy, len(cfg.Stores))
	for _, sc := range cfg.Stores {
		strategies[sc.Name] = metadata.NewRoutingStrategy(ring, sc.ReplicationFactor)
	}
	meta, err := metadata.NewStore(cfg.LSM.DataDir, strategies)
	if err != nil {
		return nil, fmt.Errorf("failed to init metadata: %w", err)
	}

	// 5. Clock
	var clk clock.Clock = &clock.SystemClock{}
	var redisClock *clock.RedisClock
	if cfg.Redis.Addr != "" {
		redisClock = clock.NewRedisClock(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
		clk = redisClock
	}

	// 6. Stores
	selfID := domain.NodeID(cfg.Server.NodeID)
	client := remote.NewClientAdapter(cfg.Remote)
	repo := repository.New(selfID, client)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := promadapter.NewRebalancingMetrics(registry)

	for _, sc := range cfg.Stores {
		engine, err := newEngine(sc, cfg.LSM)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to init store %q: %w", sc.Name, err)
		}
		repo.AddStorageEngine(engine)
		repo.AddLocalStore(rebalancing.NewRedirectingStore(engine, meta, repo, metrics))
	}
	for _, n := range ring.GetNodes() {
		repo.RegisterNode(n)
	}

	// 7. Gossip
	gossipAdapter, err := gossip.NewGossipAdapter(cfg.Server.NodeID, cfg.Server.Hostname, cfg.Gossip.Port, cfg.Server.GRPCPort, ring, repo)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to init gossip: %w", err)
	}

	// 8. gRPC Server
	maxMsgSize := domain.MaxValueSize * 2
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)
	grpcHandler.Register(grpcServer, grpcHandler.NewServer(repo, ring))

	// 9. HTTP Server
	kvService := service.NewKVService(selfID, repo, repo, meta, ring, clk)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	httpServer := httpHandler.NewServer(cfg.Server, kvService, metricsHandler)

	return &App{
		cfg:        cfg,
		grpcServer: grpcServer,
		httpServer: httpServer,
		gossip:     gossipAdapter,
		repository: repo,
		client:     client,
		redisClock: redisClock,
	}, nil
}

func newRing(cfg config.ClusterConfig) (*shard.Ring, error) {
	nodes := make([]shard.Node, 0, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		nodes = append(nodes, shard.Node{
			ID:         n.ID,
			Addr:       net.JoinHostPort(n.Host, strconv.Itoa(n.GRPCPort)),
			Partitions: n.Partitions,
			Status:     shard.NodeStatusHealthy,
		})
	}
	return shard.NewRing(nodes)
}

func newEngine(sc config.StoreConfig, lsmCfg config.LSMConfig) (port.StorageEngine, error) {
	if sc.Engine == config.EngineLSM {
		engine, err := lsm.NewLSMAdapter(sc.Name, lsmCfg)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
	return memory.NewEngine(sc.Name), nil
}

func (a *App) Run() error {
	// Start Gossip
	seeds := make([]string, 0, len(a.cfg.Gossip.Seeds))
	selfSeedSuffix := fmt.Sprintf(":%d", a.cfg.Gossip.Port)
	for _, seed := range a.cfg.Gossip.Seeds {
		if seed == "" {
			continue
		}
		if strings.HasSuffix(seed, selfSeedSuffix) && strings.Contains(seed, a.cfg.Server.Hostname) {
			continue
		}
		seeds = append(seeds, seed)
	}

	if len(seeds) > 0 {
		var joinErr error
		for i := 0; i < 5; i++ {
			joinErr = a.gossip.Join(seeds)
			if joinErr == nil {
				break
			}
			logger.Warnw("Failed to join cluster, retrying...", "attempt", i+1, "error", joinErr.Error())
			time.Sleep(2 * time.Second)
		}
		if joinErr != nil {
			logger.Errorw("Failed to join cluster after retries", "error", joinErr.Error())
		}
	}

	// Start gRPC
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.cfg.Server.GRPCPort, err)
	}

	logger.Infow("KV node starting",
		"id", a.cfg.Server.NodeID,
		"grpc", a.cfg.Server.GRPCPort,
		"http", a.cfg.Server.HTTPPort,
		"gossip", a.cfg.Gossip.Port)

	serverErrCh := make(chan error, 2)
	go func() {
		if err := a.grpcServer.Serve(listener); err != nil {
			serverErrCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			serverErrCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		// Ignore expected stop errors.
		errMsg := err.Error()
		if !strings.Contains(errMsg, "use of closed network connection") &&
			!errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
			logger.Errorw("KV server exited unexpectedly", "error", errMsg)
		}
	}

	logger.Info("Shutting down KV node")
	if err := a.gossip.Leave(); err != nil {
		logger.Warnw("Gossip leave failed", "error", err.Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		logger.Warnw("HTTP server shutdown failed", "error", err.Error())
	}
	a.grpcServer.GracefulStop()

	if err := a.repository.Close(); err != nil {
		logger.Warnw("Store close failed", "error", err.Error())
	}
	if err := a.client.Close(); err != nil {
		logger.Warnw("Peer client close failed", "error", err.Error())
	}
	if a.redisClock != nil {
		if err := a.redisClock.Close(); err != nil {
			logger.Warnw("Redis clock close failed", "error", err.Error())
		}
	}

	return runErr
}
