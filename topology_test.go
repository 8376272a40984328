package topofuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNodes = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

func buildTestTopology(t *testing.T) Topology {
	t.Helper()
	topology, err := Build(testNodes, 3)
	require.NoError(t, err)
	return topology
}

func TestBuildStriping(t *testing.T) {
	topology := buildTestTopology(t)
	require.Len(t, topology.Nodes, 10)
	assert.Equal(t, 3, topology.ReplicaCount)

	wantReplicas := []string{
		"replica-0", "replica-1", "replica-2",
		"replica-0", "replica-1", "replica-2",
		"replica-0", "replica-1", "replica-2",
		"replica-0",
	}
	wantLogParts := []int{0, 0, 0, 1, 1, 1, 2, 2, 2, 3}
	for i, n := range topology.Nodes {
		assert.Equal(t, testNodes[i], n.Name)
		assert.Equal(t, NodeActive, n.State)
		assert.Equal(t, wantReplicas[i], n.Replica)
		assert.Equal(t, wantLogParts[i], n.LogPart)
		assert.True(t, n.InLog())
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	tests := []struct {
		name         string
		nodes        []string
		replicaCount int
	}{
		{"zero replica count", []string{"a", "b"}, 0},
		{"negative replica count", []string{"a", "b"}, -1},
		{"empty node list", []string{}, 3},
		{"duplicate node", []string{"a", "b", "a"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.nodes, tt.replicaCount)
			assert.Error(t, err)
		})
	}
}

func TestReplicaName(t *testing.T) {
	assert.Equal(t, "replica-0", ReplicaName(0))
	assert.Equal(t, "replica-7", ReplicaName(7))
}

func TestNodeLookup(t *testing.T) {
	topology := buildTestTopology(t)

	n, ok := topology.Node("d")
	require.True(t, ok)
	assert.Equal(t, "d", n.Name)
	assert.Equal(t, "replica-0", n.Replica)
	assert.Equal(t, 1, n.LogPart)

	_, ok = topology.Node("zz")
	assert.False(t, ok)
}

func TestUpdateNode(t *testing.T) {
	topology := buildTestTopology(t)

	next, err := topology.UpdateNode("b", func(n NodeRecord) NodeRecord {
		n.LogPart = NoLogPart
		return n
	})
	require.NoError(t, err)

	updated, ok := next.Node("b")
	require.True(t, ok)
	assert.False(t, updated.InLog())

	// The input value is untouched.
	original, ok := topology.Node("b")
	require.True(t, ok)
	assert.Equal(t, 0, original.LogPart)
}

func TestUpdateNodeUnknown(t *testing.T) {
	topology := buildTestTopology(t)
	_, err := topology.UpdateNode("zz", func(n NodeRecord) NodeRecord {
		return n
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestCopyIsDeep(t *testing.T) {
	topology := buildTestTopology(t)
	copied := topology.Copy()
	copied.Nodes[0].State = NodeRemoving
	assert.Equal(t, NodeActive, topology.Nodes[0].State)
}
