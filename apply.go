package topofuzz

import (
	"fmt"
	"math/rand"
)

// Apply computes the topology that would result from op completing on the
// real cluster. It is speculative: removing a node from the log requires
// pushing a new log configuration computed from the topology *after*
// removal, before that topology is real, so the model advances ahead of
// the cluster and accepts that the two can diverge if an operation never
// completes or completes out of order.
//
// The input topology is never mutated. Unknown operation kinds and unknown
// target nodes are errors: either one means the caller and the model have
// fallen out of step.
func Apply(t Topology, op Op, r *rand.Rand) (Topology, error) {
	switch op.Kind {
	case OpAddNode:
		if _, ok := t.Node(op.Node); ok {
			return Topology{}, fmt.Errorf("add node %q: %w", op.Node, ErrNodeExists)
		}
		next := t.Copy()
		// Unlike Build's striping, a joining node lands on a random
		// replica and starts outside the log.
		next.Nodes = append(next.Nodes, NodeRecord{
			Name:    op.Node,
			State:   NodeActive,
			Replica: ReplicaName(r.Intn(t.ReplicaCount)),
			LogPart: NoLogPart,
		})
		return next, nil
	case OpRemoveLogNode:
		return t.UpdateNode(op.Node, func(n NodeRecord) NodeRecord {
			n.LogPart = NoLogPart
			return n
		})
	case OpRemoveNode:
		// The record is retained so downstream views still see the
		// node's last replica assignment.
		return t.UpdateNode(op.Node, func(n NodeRecord) NodeRecord {
			n.State = NodeRemoving
			return n
		})
	default:
		return Topology{}, fmt.Errorf("apply %q: %w", op.Kind, ErrUnknownOp)
	}
}
