package topofuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCluster accepts every action and records what was issued.
type fakeCluster struct {
	universe   map[string]bool
	actions    []Op
	configs    [][][]string
	requests   []string
	resetCount int
}

var _ Cluster = &fakeCluster{}

type fakeClusterConstructor struct {
	clusters []*fakeCluster
}

func (f *fakeClusterConstructor) NewCluster(nodes []string) Cluster {
	universe := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		universe[n] = true
	}
	c := &fakeCluster{universe: universe}
	f.clusters = append(f.clusters, c)
	return c
}

func (c *fakeCluster) Reset() {
	c.resetCount++
}

func (c *fakeCluster) AddNode(rCtx *RunContext, node string, joinVia string) error {
	c.actions = append(c.actions, Op{Kind: OpAddNode, Node: node, JoinVia: joinVia})
	return nil
}

func (c *fakeCluster) RemoveNode(rCtx *RunContext, node string) error {
	c.actions = append(c.actions, Op{Kind: OpRemoveNode, Node: node})
	return nil
}

func (c *fakeCluster) RemoveLogNode(rCtx *RunContext, node string) error {
	c.actions = append(c.actions, Op{Kind: OpRemoveLogNode, Node: node})
	return nil
}

func (c *fakeCluster) PushLogConfiguration(rCtx *RunContext, config [][]string) error {
	c.configs = append(c.configs, config)
	return nil
}

func (c *fakeCluster) ClientRequest(rCtx *RunContext, reqNum string) error {
	c.requests = append(c.requests, reqNum)
	return nil
}

func testConfig() *Config {
	return &Config{
		Nodes:                []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		InitialNodes:         6,
		ReplicaCount:         3,
		Runs:                 3,
		Rounds:               10,
		RequestsPerRun:       2,
		MutationsPerSchedule: 1,
		SeedSchedules:        0,
		ReseedEvery:          0,
	}
}

func TestNemesisRun(t *testing.T) {
	config := testConfig()
	require.NoError(t, config.Validate())

	constructor := &fakeClusterConstructor{}
	nemesis := NewNemesis(config, constructor, NewTopologyGuider("", false), RandomMutator())

	coverage := nemesis.Run()
	assert.GreaterOrEqual(t, coverage.UniqueTopologies, 1)

	stats := nemesis.Stats()
	assert.Equal(t, config.Runs,
		stats["random_runs"].(int)+stats["mutated_runs"].(int))
	assert.Empty(t, stats["run_errors"].(map[string]bool))

	require.Len(t, constructor.clusters, config.Runs)
	totalActions := 0
	for _, cluster := range constructor.clusters {
		assert.Equal(t, 1, cluster.resetCount)
		for _, action := range cluster.actions {
			assert.True(t, cluster.universe[action.Node])
		}
		totalActions += len(cluster.actions)
	}
	assert.Greater(t, totalActions, 0)
	assert.LessOrEqual(t, totalActions, config.Runs*config.Rounds)

	current := nemesis.Current()
	assert.Equal(t, config.ReplicaCount, current.ReplicaCount)
	assert.GreaterOrEqual(t, len(current.Nodes), config.InitialNodes)
}

func TestNemesisModelMatchesIssuedActions(t *testing.T) {
	config := testConfig()
	config.Runs = 1
	require.NoError(t, config.Validate())

	constructor := &fakeClusterConstructor{}
	nemesis := NewNemesis(config, constructor, NewTopologyGuider("", false), RandomMutator())
	trace, _, topologies := nemesis.RunIteration("run_0", nil)

	require.Len(t, constructor.clusters, 1)
	cluster := constructor.clusters[0]

	// Every recorded op choice corresponds to one issued action, in order.
	issued := 0
	for _, ch := range trace.Iter() {
		if ch.Type != "Op" {
			continue
		}
		require.Less(t, issued, len(cluster.actions))
		assert.Equal(t, ch.Op(), cluster.actions[issued])
		issued++
	}
	assert.Equal(t, issued, len(cluster.actions))

	// The model advanced once per issued action, plus the initial build.
	assert.Equal(t, issued+1, topologies.Size())

	// The initial configuration was pushed once, then once more per
	// log-membership change.
	logRemovals := 0
	for _, action := range cluster.actions {
		if action.Kind == OpRemoveLogNode {
			logRemovals++
		}
	}
	assert.Len(t, cluster.configs, logRemovals+1)
}

func TestNemesisReplaysMimicSchedule(t *testing.T) {
	config := testConfig()
	require.NoError(t, config.Validate())

	constructor := &fakeClusterConstructor{}
	nemesis := NewNemesis(config, constructor, NewTopologyGuider("", false), RandomMutator())

	trace, _, _ := nemesis.RunIteration("seed", nil)
	replayed, _, _ := nemesis.RunIteration("replay", copySchedule(trace, defaultCopyFilter()))

	var want, got []Op
	for _, ch := range trace.Iter() {
		if ch.Type == "Op" {
			want = append(want, Op{Kind: ch.Kind, Node: ch.Node})
		}
	}
	for _, ch := range replayed.Iter() {
		if ch.Type == "Op" {
			got = append(got, Op{Kind: ch.Kind, Node: ch.Node})
		}
	}
	// Replaying a schedule from the same initial topology stays legal at
	// every round and reproduces the operation sequence.
	assert.Equal(t, want, got)
}
