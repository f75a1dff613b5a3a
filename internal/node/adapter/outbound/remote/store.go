package remote

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/wire"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

// nodeStore is the handle of one store on one peer.
type nodeStore struct {
	client    *ClientAdapter
	storeName string
	node      shard.Node
}

// Ensure nodeStore implements port.Store.
var _ port.Store = (*nodeStore)(nil)

// StoreFor returns a handle to storeName on node. Handles share the client's
// connections, so closing one is a no-op.
func (c *ClientAdapter) StoreFor(storeName string, node shard.Node) port.Store {
	return &nodeStore{client: c, storeName: storeName, node: node}
}

func (s *nodeStore) Name() string {
	return s.storeName
}

func (s *nodeStore) Get(ctx context.Context, key domain.Key) ([]domain.Versioned, error) {
	var resp wire.GetResponse
	err := s.client.invoke(ctx, s.node.Addr, wire.GetMethod, &wire.GetRequest{Store: s.storeName, Key: key}, &resp)
	if err != nil {
		return nil, s.mapError(err, key, domain.VectorClock{})
	}
	return resp.Versions, nil
}

func (s *nodeStore) Put(ctx context.Context, key domain.Key, value domain.Versioned) error {
	var resp wire.PutResponse
	err := s.client.invoke(ctx, s.node.Addr, wire.PutMethod, &wire.PutRequest{Store: s.storeName, Key: key, Value: value}, &resp)
	if err != nil {
		return s.mapError(err, key, value.Version)
	}
	return nil
}

func (s *nodeStore) Delete(ctx context.Context, key domain.Key, version domain.VectorClock) (bool, error) {
	var resp wire.DeleteResponse
	err := s.client.invoke(ctx, s.node.Addr, wire.DeleteMethod, &wire.DeleteRequest{Store: s.storeName, Key: key, Version: version}, &resp)
	if err != nil {
		return false, s.mapError(err, key, version)
	}
	return resp.Deleted, nil
}

func (s *nodeStore) Close() error {
	return nil
}

func (s *nodeStore) mapError(err error, key domain.Key, version domain.VectorClock) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, ok := status.FromError(err)
	if ok {
		switch st.Code() {
		case codes.FailedPrecondition:
			return &domain.ObsoleteVersionError{Key: key.Clone(), Version: version}
		case codes.InvalidArgument:
			return &domain.ValidationError{Field: "request", Reason: st.Message()}
		}
	}
	return &domain.ConnectivityError{StoreName: s.storeName, NodeID: domain.NodeID(s.node.ID), Err: err}
}

// Topology asks the node at addr for its view of the cluster.
func (c *ClientAdapter) Topology(ctx context.Context, addr string) ([]shard.Node, error) {
	var resp wire.TopologyResponse
	if err := c.invoke(ctx, addr, wire.TopologyMethod, &wire.TopologyRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}
