package topofuzz

import "math/rand"

// OpKind tags a membership transition operation.
type OpKind string

const (
	OpAddNode       OpKind = "add-node"
	OpRemoveNode    OpKind = "remove-node"
	OpRemoveLogNode OpKind = "remove-log-node"
)

// Op is one legal membership transition. Node is the target; JoinVia is set
// only for add-node and is an advisory bootstrap hint for the cluster
// client, not part of the model's own invariants.
type Op struct {
	Kind    OpKind
	Node    string
	JoinVia string
}

// minLogPartSize is the floor below which a log partition is never shrunk.
// Removing a member from a partition at or below this size is treated as
// destabilizing and is not proposed.
const minLogPartSize = 2

// GenerateOps enumerates every legal transition from the current topology
// given the full candidate node universe:
//
//   - add-node for every universe member not present in the topology,
//   - remove-log-node for every member of an over-provisioned log
//     partition (a node must leave the log before it can be removed),
//   - remove-node for every active node that carries no log partition.
//
// It is pure: no I/O, no mutation. The injected rand is used only for the
// add-node join hints. Selection among the result is the scheduler's
// business; an empty result just means no transition is legal right now.
func GenerateOps(universe []string, t Topology, r *rand.Rand) []Op {
	ops := make([]Op, 0)

	present := make(map[string]bool, len(t.Nodes))
	names := make([]string, 0, len(t.Nodes))
	for _, n := range t.Nodes {
		present[n.Name] = true
		names = append(names, n.Name)
	}
	for _, candidate := range universe {
		if present[candidate] || len(names) == 0 {
			continue
		}
		ops = append(ops, Op{
			Kind:    OpAddNode,
			Node:    candidate,
			JoinVia: names[r.Intn(len(names))],
		})
	}

	active := t.OnlyActive()
	counts := make(map[int]int)
	for _, n := range active.Nodes {
		if n.InLog() {
			counts[n.LogPart]++
		}
	}
	for _, n := range active.Nodes {
		if n.InLog() && counts[n.LogPart] > minLogPartSize {
			ops = append(ops, Op{Kind: OpRemoveLogNode, Node: n.Name})
		}
	}

	for _, n := range active.Nodes {
		if !n.InLog() {
			ops = append(ops, Op{Kind: OpRemoveNode, Node: n.Name})
		}
	}

	return ops
}
