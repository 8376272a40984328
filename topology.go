package topofuzz

import (
	"errors"
	"fmt"
)

// NodeState is the lifecycle state of a node record.
type NodeState string

const (
	NodeActive   NodeState = "active"
	NodeRemoving NodeState = "removing"
)

// NoLogPart marks a node that does not participate in any log partition.
const NoLogPart = -1

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrUnknownOp   = errors.New("unknown operation kind")
	ErrNodeExists  = errors.New("node already present")
)

// NodeRecord is the modeled state of a single cluster node: its replica
// assignment and, when it participates in the replicated log, its partition.
// A removing node keeps its record for bookkeeping and is only filtered out
// of the active view.
type NodeRecord struct {
	Name    string
	State   NodeState
	Replica string
	LogPart int
}

// InLog reports whether the node currently participates in a log partition.
func (n NodeRecord) InLog() bool {
	return n.LogPart != NoLogPart
}

// Topology is the speculative model of cluster membership: which nodes
// belong to which replica and which host each log partition. Values are
// immutable; every transition returns a new Topology and the caller owns
// the single "current" reference.
type Topology struct {
	ReplicaCount int
	Nodes        []NodeRecord
}

func (t Topology) Copy() Topology {
	nodes := make([]NodeRecord, len(t.Nodes))
	copy(nodes, t.Nodes)
	return Topology{
		ReplicaCount: t.ReplicaCount,
		Nodes:        nodes,
	}
}

// ReplicaName formats the canonical name of replica n. Replica identity is
// never represented as anything but this string.
func ReplicaName(n int) string {
	return fmt.Sprintf("replica-%d", n)
}

// Build constructs the initial topology from the full node list. Replicas
// are striped round-robin over the list and every block of replicaCount
// consecutive nodes seeds one log partition, so no node starts without a
// log assignment.
func Build(nodes []string, replicaCount int) (Topology, error) {
	if replicaCount < 1 {
		return Topology{}, fmt.Errorf("replica count must be positive, got %d", replicaCount)
	}
	if len(nodes) == 0 {
		return Topology{}, errors.New("initial node list is empty")
	}
	seen := make(map[string]bool, len(nodes))
	records := make([]NodeRecord, 0, len(nodes))
	for i, name := range nodes {
		if seen[name] {
			return Topology{}, fmt.Errorf("duplicate node %q in initial node list", name)
		}
		seen[name] = true
		records = append(records, NodeRecord{
			Name:    name,
			State:   NodeActive,
			Replica: ReplicaName(i % replicaCount),
			LogPart: i / replicaCount,
		})
	}
	return Topology{
		ReplicaCount: replicaCount,
		Nodes:        records,
	}, nil
}

// Node returns the record for the named node.
func (t Topology) Node(name string) (NodeRecord, bool) {
	for _, n := range t.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// UpdateNode returns a topology with the named record replaced by
// transform(record). An unknown name is an error, not a no-op: a miss here
// means the caller's model and the topology disagree.
func (t Topology) UpdateNode(name string, transform func(NodeRecord) NodeRecord) (Topology, error) {
	for i, n := range t.Nodes {
		if n.Name == name {
			next := t.Copy()
			next.Nodes[i] = transform(n)
			return next, nil
		}
	}
	return Topology{}, fmt.Errorf("update node %q: %w", name, ErrUnknownNode)
}
