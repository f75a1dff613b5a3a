package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/anthanhphan/go-distributed-kv/internal/node/config"
	"github.com/anthanhphan/go-distributed-kv/internal/node/wire"
	"github.com/anthanhphan/go-distributed-kv/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

const defaultTimeout = 5 * time.Second

// ClientAdapter keeps one connection and one circuit breaker per peer address.
type ClientAdapter struct {
	mu       sync.RWMutex
	conns    map[string]*grpc.ClientConn
	breakers map[string]*resilience.CircuitBreaker
	timeout  time.Duration
	dialOpts []grpc.DialOption
}

// NewClientAdapter creates a client. Extra dial options are appended to the
// defaults for every connection.
func NewClientAdapter(cfg config.RemoteConfig, opts ...grpc.DialOption) *ClientAdapter {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(wire.CodecName)),
	}
	return &ClientAdapter{
		conns:    make(map[string]*grpc.ClientConn),
		breakers: make(map[string]*resilience.CircuitBreaker),
		timeout:  timeout,
		dialOpts: append(dialOpts, opts...),
	}
}

func (c *ClientAdapter) getConn(addr string) (*grpc.ClientConn, error) {
	c.mu.RLock()
	conn, ok := c.conns[addr]
	c.mu.RUnlock()
	if ok {
		return conn, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check
	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}

	newConn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c.conns[addr] = newConn
	return newConn, nil
}

// invoke runs one unary call against addr behind the address breaker.
func (c *ClientAdapter) invoke(ctx context.Context, addr, method string, req, resp wire.Message) error {
	callCtx, cancel := c.withDefaultTimeout(ctx)
	defer cancel()

	breaker := c.getBreaker(addr)
	err := breaker.Execute(callCtx, func(execCtx context.Context) error {
		conn, err := c.getConn(addr)
		if err != nil {
			return err
		}
		return normalizeRPCErr(conn.Invoke(execCtx, method, req, resp))
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		logger.Warnw("Peer RPC short-circuited", "method", method, "target", addr, "error", err.Error())
		return err
	}
	if errors.Is(err, context.Canceled) || !isTransportFailure(err) {
		return err
	}
	logger.Warnw("Peer RPC failed", "method", method, "target", addr, "error", err.Error())
	c.dropConn(addr)
	return err
}

func (c *ClientAdapter) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *ClientAdapter) getBreaker(addr string) *resilience.CircuitBreaker {
	c.mu.RLock()
	cb, ok := c.breakers[addr]
	c.mu.RUnlock()
	if ok {
		return cb
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok = c.breakers[addr]; ok {
		return cb
	}
	cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:              addr,
		FailureThreshold:  3,
		SuccessThreshold:  2,
		OpenTimeout:       10 * time.Second,
		HalfOpenMaxFlight: 1,
		IsFailure:         isTransportFailure,
		OnStateChange:     logBreakerTransition,
	})
	c.breakers[addr] = cb
	return cb
}

func logBreakerTransition(target string, from, to resilience.CircuitBreakerState) {
	logger.Infow("Peer circuit breaker changed state", "target", target, "from", string(from), "to", string(to))
}

func (c *ClientAdapter) dropConn(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		_ = conn.Close()
		delete(c.conns, addr)
	}
}

// Close closes all connections.
func (c *ClientAdapter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, conn := range c.conns {
		_ = conn.Close()
		delete(c.conns, addr)
	}
	return nil
}

func normalizeRPCErr(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Canceled {
		return context.Canceled
	}
	return err
}

// isTransportFailure reports whether err says the peer could not be used, as
// opposed to the peer rejecting the request.
func isTransportFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
		return false
	default:
		return true
	}
}
