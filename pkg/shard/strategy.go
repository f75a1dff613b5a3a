package shard

// ConsistentStrategy places replicas on the partitions following the key's
// master partition, skipping partitions whose owner already holds a replica.
type ConsistentStrategy struct {
	ring *Ring
	rf   int
}

func NewConsistentStrategy(ring *Ring, replicationFactor int) *ConsistentStrategy {
	if replicationFactor <= 0 {
		replicationFactor = 1
	}
	return &ConsistentStrategy{ring: ring, rf: replicationFactor}
}

// ReplicationFactor returns the number of replicas requested per key.
func (s *ConsistentStrategy) ReplicationFactor() int {
	return s.rf
}

// PartitionList returns the ordered replica partitions of a key. The first
// entry is the master partition. Fewer than rf partitions are returned when
// the cluster has fewer than rf nodes.
func (s *ConsistentStrategy) PartitionList(key []byte) []int {
	s.ring.mu.RLock()
	defer s.ring.mu.RUnlock()

	total := len(s.ring.owners)
	if total == 0 {
		return nil
	}

	master := s.ring.MasterPartition(key)
	partitions := make([]int, 0, s.rf)
	seen := make(map[int]bool, s.rf)

	// Walk the ring clockwise
	for i := 0; i < total && len(partitions) < s.rf; i++ {
		p := (master + i) % total
		owner := s.ring.owners[p]
		if seen[owner] {
			continue
		}
		seen[owner] = true
		partitions = append(partitions, p)
	}
	return partitions
}

// RouteRequest returns the owners of the key's partition list, in order.
func (s *ConsistentStrategy) RouteRequest(key []byte) []Node {
	partitions := s.PartitionList(key)

	s.ring.mu.RLock()
	defer s.ring.mu.RUnlock()

	nodes := make([]Node, 0, len(partitions))
	for _, p := range partitions {
		nodes = append(nodes, s.ring.nodes[s.ring.owners[p]].clone())
	}
	return nodes
}
