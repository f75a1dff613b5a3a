package grpc_handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/anthanhphan/go-distributed-kv/internal/node/adapter/outbound/memory"
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/repository"
	"github.com/anthanhphan/go-distributed-kv/internal/node/wire"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

type staticTopology []shard.Node

func (t staticTopology) GetNodes() []shard.Node { return t }

func startServer(t *testing.T) (*grpc.ClientConn, *memory.Engine) {
	t.Helper()

	engine := memory.NewEngine("users")
	repo := repository.New(0, nil)
	repo.AddLocalStore(engine)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, NewServer(repo, staticTopology{{ID: 0, Addr: "a:8081", Partitions: []int{0, 1}, Status: shard.NodeStatusHealthy}}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(wire.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, engine
}

func clockOf(entries ...int) domain.VectorClock {
	vc := domain.NewVectorClock()
	for i := 0; i+1 < len(entries); i += 2 {
		vc.Versions[domain.NodeID(entries[i])] = uint64(entries[i+1])
	}
	return vc
}

func TestServer_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	conn, engine := startServer(t)

	put := &wire.PutRequest{Store: "users", Key: []byte("k"), Value: domain.NewVersioned([]byte("v"), clockOf(0, 1))}
	require.NoError(t, conn.Invoke(ctx, wire.PutMethod, put, &wire.PutResponse{}))
	assert.Equal(t, 1, engine.Len())

	var got wire.GetResponse
	require.NoError(t, conn.Invoke(ctx, wire.GetMethod, &wire.GetRequest{Store: "users", Key: []byte("k")}, &got))
	require.Len(t, got.Versions, 1)
	assert.Equal(t, []byte("v"), got.Versions[0].Value)

	var del wire.DeleteResponse
	require.NoError(t, conn.Invoke(ctx, wire.DeleteMethod, &wire.DeleteRequest{Store: "users", Key: []byte("k"), Version: clockOf(0, 1)}, &del))
	assert.True(t, del.Deleted)
	assert.Equal(t, 0, engine.Len())
}

func TestServer_StatusCodes(t *testing.T) {
	ctx := context.Background()
	conn, _ := startServer(t)

	put := &wire.PutRequest{Store: "users", Key: []byte("k"), Value: domain.NewVersioned([]byte("v"), clockOf(0, 2))}
	require.NoError(t, conn.Invoke(ctx, wire.PutMethod, put, &wire.PutResponse{}))

	tests := []struct {
		name string
		req  wire.Message
		want codes.Code
	}{
		{
			name: "obsolete version",
			req:  &wire.PutRequest{Store: "users", Key: []byte("k"), Value: domain.NewVersioned([]byte("old"), clockOf(0, 1))},
			want: codes.FailedPrecondition,
		},
		{
			name: "empty key",
			req:  &wire.PutRequest{Store: "users", Key: nil, Value: domain.NewVersioned([]byte("v"), clockOf(0, 1))},
			want: codes.InvalidArgument,
		},
		{
			name: "unknown store",
			req:  &wire.PutRequest{Store: "missing", Key: []byte("k"), Value: domain.NewVersioned([]byte("v"), clockOf(0, 1))},
			want: codes.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := conn.Invoke(ctx, wire.PutMethod, tt.req, &wire.PutResponse{})
			if got := status.Code(err); got != tt.want {
				t.Fatalf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestServer_Topology(t *testing.T) {
	conn, _ := startServer(t)

	var resp wire.TopologyResponse
	require.NoError(t, conn.Invoke(context.Background(), wire.TopologyMethod, &wire.TopologyRequest{}, &resp))
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "a:8081", resp.Nodes[0].Addr)
	assert.Equal(t, []int{0, 1}, resp.Nodes[0].Partitions)
	assert.Equal(t, shard.NodeStatusHealthy, resp.Nodes[0].Status)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{err: &domain.ValidationError{Field: "key", Reason: "must not be empty"}, want: codes.InvalidArgument},
		{err: &domain.ObsoleteVersionError{Key: domain.Key("k"), Version: clockOf(0, 1)}, want: codes.FailedPrecondition},
		{err: fmt.Errorf("%w: x", domain.ErrStoreNotFound), want: codes.NotFound},
		{err: &domain.ConnectivityError{StoreName: "users", NodeID: 1}, want: codes.Unavailable},
		{err: fmt.Errorf("reconcile: %w", context.Canceled), want: codes.Canceled},
		{err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{err: errors.New("disk failure"), want: codes.Internal},
	}

	for _, tt := range tests {
		if got := status.Code(toStatus("Put", "users", tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
