package topofuzz

// Replicas returns the canonical replica names in order.
func (t Topology) Replicas() []string {
	replicas := make([]string, t.ReplicaCount)
	for i := 0; i < t.ReplicaCount; i++ {
		replicas[i] = ReplicaName(i)
	}
	return replicas
}

// ReplicaOf returns the replica the named node is assigned to.
func (t Topology) ReplicaOf(name string) (string, bool) {
	n, ok := t.Node(name)
	if !ok {
		return "", false
	}
	return n.Replica, true
}

// NodesByReplica groups node names by replica, in node order. All nodes
// appear regardless of state; a node mid-removal still counts for its
// replica until the real cluster forgets it.
func (t Topology) NodesByReplica() map[string][]string {
	groups := make(map[string][]string, t.ReplicaCount)
	for _, n := range t.Nodes {
		groups[n.Replica] = append(groups[n.Replica], n.Name)
	}
	return groups
}

// OnlyActive returns the topology restricted to active nodes. Transition
// generation runs against this view so nodes mid-removal are never offered
// again.
func (t Topology) OnlyActive() Topology {
	nodes := make([]NodeRecord, 0, len(t.Nodes))
	for _, n := range t.Nodes {
		if n.State == NodeActive {
			nodes = append(nodes, n)
		}
	}
	return Topology{
		ReplicaCount: t.ReplicaCount,
		Nodes:        nodes,
	}
}

// LogParts returns the dense partition number sequence 0..max. Partition
// numbers are never skipped by construction, though a partition can end up
// empty after removals.
func (t Topology) LogParts() []int {
	max := 0
	for _, n := range t.Nodes {
		if n.InLog() && n.LogPart > max {
			max = n.LogPart
		}
	}
	parts := make([]int, max+1)
	for i := range parts {
		parts[i] = i
	}
	return parts
}

func (t Topology) logPartCounts() []int {
	counts := make([]int, len(t.LogParts()))
	for _, n := range t.Nodes {
		if n.InLog() {
			counts[n.LogPart]++
		}
	}
	return counts
}

// SmallestLogPart returns the partition with the fewest members, ties
// broken toward the lowest partition number.
func (t Topology) SmallestLogPart() int {
	counts := t.logPartCounts()
	smallest := 0
	for p, c := range counts {
		if c < counts[smallest] {
			smallest = p
		}
	}
	return smallest
}

// LogConfiguration returns one member list per log partition, in partition
// order. This is the structure pushed to the real cluster to reconfigure
// log membership.
func (t Topology) LogConfiguration() [][]string {
	cfg := make([][]string, len(t.LogParts()))
	for i := range cfg {
		cfg[i] = make([]string, 0)
	}
	for _, n := range t.Nodes {
		if n.InLog() {
			cfg[n.LogPart] = append(cfg[n.LogPart], n.Name)
		}
	}
	return cfg
}
