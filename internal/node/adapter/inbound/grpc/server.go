package grpc_handler

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/wire"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

// TopologySource provides the cluster view served by Topology.
type TopologySource interface {
	GetNodes() []shard.Node
}

// storeServiceServer is the handler type of the StoreService descriptor.
type storeServiceServer interface {
	Get(ctx context.Context, req *wire.GetRequest) (*wire.GetResponse, error)
	Put(ctx context.Context, req *wire.PutRequest) (*wire.PutResponse, error)
	Delete(ctx context.Context, req *wire.DeleteRequest) (*wire.DeleteResponse, error)
	Topology(ctx context.Context, req *wire.TopologyRequest) (*wire.TopologyResponse, error)
}

// Server implements the StoreService peers call to read and write this
// node's stores. Requests go through the request-facing stores, so a node
// that is stealing partitions proxies them like client requests.
type Server struct {
	stores   port.LocalStores
	topology TopologySource
}

// Ensure Server implements storeServiceServer.
var _ storeServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server.
func NewServer(stores port.LocalStores, topology TopologySource) *Server {
	return &Server{
		stores:   stores,
		topology: topology,
	}
}

// Register adds the StoreService to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, srv *Server) {
	registrar.RegisterService(&storeServiceDesc, srv)
}

func (s *Server) Get(ctx context.Context, req *wire.GetRequest) (*wire.GetResponse, error) {
	store, err := s.store(req.Store)
	if err != nil {
		return nil, err
	}
	versions, err := store.Get(ctx, req.Key)
	if err != nil {
		return nil, toStatus("Get", req.Store, err)
	}
	return &wire.GetResponse{Versions: versions}, nil
}

func (s *Server) Put(ctx context.Context, req *wire.PutRequest) (*wire.PutResponse, error) {
	store, err := s.store(req.Store)
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, req.Key, req.Value); err != nil {
		return nil, toStatus("Put", req.Store, err)
	}
	return &wire.PutResponse{}, nil
}

func (s *Server) Delete(ctx context.Context, req *wire.DeleteRequest) (*wire.DeleteResponse, error) {
	store, err := s.store(req.Store)
	if err != nil {
		return nil, err
	}
	deleted, err := store.Delete(ctx, req.Key, req.Version)
	if err != nil {
		return nil, toStatus("Delete", req.Store, err)
	}
	return &wire.DeleteResponse{Deleted: deleted}, nil
}

func (s *Server) Topology(ctx context.Context, req *wire.TopologyRequest) (*wire.TopologyResponse, error) {
	return &wire.TopologyResponse{Nodes: s.topology.GetNodes()}, nil
}

func (s *Server) store(name string) (port.Store, error) {
	store, ok := s.stores.LocalStore(name)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "store %q not found", name)
	}
	return store, nil
}

// toStatus maps domain errors onto the codes the remote client decodes.
func toStatus(method, storeName string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrObsoleteVersion):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrStoreNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrConnectivity):
		logger.Warnw("Peer request failed on donor", "method", method, "store", storeName, "error", err.Error())
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.Errorw("Peer request failed", "method", method, "store", storeName, "error", err.Error())
		return status.Error(codes.Internal, err.Error())
	}
}
