package wire

// ServiceName is the gRPC service every node exposes to its peers.
const ServiceName = "kv.v1.StoreService"

// Full method names of ServiceName.
const (
	GetMethod      = "/" + ServiceName + "/Get"
	PutMethod      = "/" + ServiceName + "/Put"
	DeleteMethod   = "/" + ServiceName + "/Delete"
	TopologyMethod = "/" + ServiceName + "/Topology"
)
