package gossip

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/hashicorp/memberlist"
)

var errNoNodeMeta = errors.New("node meta has no node id")

// Listener is told about peers entering and leaving the cluster. Node
// carries the ring's view of the peer after the update.
type Listener interface {
	NodeJoined(node shard.Node)
	NodeLeft(nodeID int)
}

// nodeMeta is gossiped with every member so peers can map a memberlist
// name to a cluster node and its gRPC endpoint.
type nodeMeta struct {
	NodeID   int `json:"node_id"`
	GRPCPort int `json:"grpc_port"`
}

// GossipAdapter implements port.MembershipPort using memberlist.
type GossipAdapter struct {
	list     *memberlist.Memberlist
	conf     *memberlist.Config
	ring     *shard.Ring
	listener Listener

	nodeID   int
	addr     string
	port     int
	grpcPort int
}

// Ensure GossipAdapter implements Memberlist Delegate
var _ memberlist.Delegate = (*GossipAdapter)(nil)

// NewGossipAdapter creates a membership adapter for a node of the static
// cluster layout held by ring. listener may be nil.
func NewGossipAdapter(nodeID int, bindAddr string, bindPort int, grpcPort int, ring *shard.Ring, listener Listener) (*GossipAdapter, error) {
	if _, ok := ring.Node(nodeID); !ok {
		return nil, fmt.Errorf("%w: %d", shard.ErrUnknownNode, nodeID)
	}

	config := memberlist.DefaultLANConfig()
	config.Name = memberName(nodeID)
	config.BindAddr = bindAddr
	config.BindPort = bindPort
	config.AdvertisePort = bindPort

	// Disable logging for now
	config.LogOutput = io.Discard

	adapter := &GossipAdapter{
		conf:     config,
		ring:     ring,
		listener: listener,
		nodeID:   nodeID,
		addr:     bindAddr,
		port:     bindPort,
		grpcPort: grpcPort,
	}

	config.Events = adapter   // Handle join/leave events
	config.Delegate = adapter // Handle metadata exchange

	list, err := memberlist.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	adapter.list = list

	// Publish our own gRPC address in the ring.
	self := adapter.LocalNode()
	if err := ring.UpdateNode(nodeID, self.Addr, shard.NodeStatusHealthy); err != nil {
		_ = list.Shutdown()
		return nil, err
	}

	return adapter, nil
}

func memberName(nodeID int) string {
	return "node-" + strconv.Itoa(nodeID)
}

// Join joins the cluster using seed nodes.
func (g *GossipAdapter) Join(seeds []string) error {
	if len(seeds) > 0 {
		_, err := g.list.Join(seeds)
		if err != nil {
			return fmt.Errorf("failed to join cluster: %w", err)
		}
	}
	return nil
}

// Leave leaves the cluster.
func (g *GossipAdapter) Leave() error {
	// gracefully leave
	if err := g.list.Leave(time.Second * 5); err != nil {
		return err
	}
	return g.list.Shutdown()
}

// NodeMeta returns the local node metadata.
func (g *GossipAdapter) NodeMeta(limit int) []byte {
	data, err := json.Marshal(nodeMeta{NodeID: g.nodeID, GRPCPort: g.grpcPort})
	if err != nil {
		logger.Warnw("failed to marshal gossip node meta", "error", err.Error())
		return nil
	}
	if len(data) > limit && limit > 0 {
		logger.Warnw("gossip node meta exceeds limit", "size", len(data), "limit", limit)
		return nil
	}
	return data
}

// NotifyMsg, GetBroadcasts, LocalState, MergeRemoteState are not used here but required by Delegate
func (g *GossipAdapter) NotifyMsg([]byte)                           {}
func (g *GossipAdapter) GetBroadcasts(overhead, limit int) [][]byte { return nil }
func (g *GossipAdapter) LocalState(join bool) []byte                { return nil }
func (g *GossipAdapter) MergeRemoteState(buf []byte, join bool)     {}

// Members returns the ring's view of every live member.
func (g *GossipAdapter) Members() []shard.Node {
	members := g.list.Members()
	nodes := make([]shard.Node, 0, len(members))
	for _, m := range members {
		meta, err := decodeMeta(m.Meta)
		if err != nil {
			continue
		}
		if n, ok := g.ring.Node(meta.NodeID); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// LocalNode returns the local node info.
func (g *GossipAdapter) LocalNode() shard.Node {
	node, _ := g.ring.Node(g.nodeID)
	node.Addr = net.JoinHostPort(g.serverHost(), strconv.Itoa(g.grpcPort))
	node.Status = shard.NodeStatusHealthy
	return node
}

// NotifyJoin is invoked when a node joins.
func (g *GossipAdapter) NotifyJoin(node *memberlist.Node) {
	meta, err := decodeMeta(node.Meta)
	if err != nil {
		logger.Warnw("Ignoring member without node meta", "name", node.Name, "error", err.Error())
		return
	}
	if meta.NodeID == g.nodeID {
		return
	}

	port := meta.GRPCPort
	if port <= 0 {
		port = int(node.Port)
	}
	addr := net.JoinHostPort(node.Addr.String(), strconv.Itoa(port))
	if err := g.ring.UpdateNode(meta.NodeID, addr, shard.NodeStatusHealthy); err != nil {
		logger.Warnw("Ignoring member outside the cluster layout", "id", meta.NodeID, "addr", addr, "error", err.Error())
		return
	}
	logger.Infow("Node joined", "id", meta.NodeID, "addr", addr)

	if g.listener != nil {
		n, _ := g.ring.Node(meta.NodeID)
		g.listener.NodeJoined(n)
	}
}

// NotifyLeave is invoked when a node leaves.
func (g *GossipAdapter) NotifyLeave(node *memberlist.Node) {
	meta, err := decodeMeta(node.Meta)
	if err != nil || meta.NodeID == g.nodeID {
		return
	}
	logger.Infow("Node left", "id", meta.NodeID)
	g.ring.SetNodeStatus(meta.NodeID, shard.NodeStatusUnhealthy)

	if g.listener != nil {
		g.listener.NodeLeft(meta.NodeID)
	}
}

// NotifyUpdate is invoked when a node is updated.
func (g *GossipAdapter) NotifyUpdate(node *memberlist.Node) {
	// Re-register to pick up a changed address
	g.NotifyJoin(node)
}

func decodeMeta(data []byte) (nodeMeta, error) {
	if len(data) == 0 {
		return nodeMeta{}, errNoNodeMeta
	}
	m := nodeMeta{NodeID: -1}
	if err := json.Unmarshal(data, &m); err != nil {
		return nodeMeta{}, fmt.Errorf("failed to decode node metadata: %w", err)
	}
	if m.NodeID < 0 {
		return nodeMeta{}, errNoNodeMeta
	}
	return m, nil
}

func (g *GossipAdapter) serverHost() string {
	if g.addr == "" {
		return g.addr
	}
	if ip := net.ParseIP(g.addr); ip == nil || !ip.IsUnspecified() {
		return g.addr
	}

	if g.list == nil || g.list.LocalNode() == nil {
		return g.addr
	}

	adv := g.list.LocalNode().Addr.String()
	if adv == "" {
		return g.addr
	}
	if ip := net.ParseIP(adv); ip != nil && ip.IsUnspecified() {
		return g.addr
	}
	return adv
}
