package topofuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() *List[*Choice] {
	s := NewList[*Choice]()
	s.Append(&Choice{Type: "Op", Round: 0, Kind: OpRemoveLogNode, Node: "a"})
	s.Append(&Choice{Type: "Op", Round: 1, Kind: OpRemoveLogNode, Node: "d"})
	s.Append(&Choice{Type: "ClientRequest", Round: 2, Request: "1"})
	s.Append(&Choice{Type: "Op", Round: 3, Kind: OpRemoveNode, Node: "a"})
	s.Append(&Choice{Type: "Op", Round: 4, Kind: OpRemoveNode, Node: "d"})
	return s
}

func scheduleOps(s *List[*Choice]) []Op {
	ops := make([]Op, 0)
	for _, ch := range s.Iter() {
		if ch.Type == "Op" {
			ops = append(ops, Op{Kind: ch.Kind, Node: ch.Node})
		}
	}
	return ops
}

func TestRandomMutator(t *testing.T) {
	_, ok := RandomMutator().Mutate(testSchedule())
	assert.False(t, ok)
}

func TestSwapOpTargetMutator(t *testing.T) {
	schedule := testSchedule()
	mutated, ok := NewSwapOpTargetMutator(2).Mutate(schedule)
	require.True(t, ok)

	// Kinds stay in place; only targets move, and only between choices of
	// the same kind.
	require.Equal(t, schedule.Size(), mutated.Size())
	for i, ch := range schedule.Iter() {
		mCh, _ := mutated.Get(i)
		assert.Equal(t, ch.Type, mCh.Type)
		assert.Equal(t, ch.Kind, mCh.Kind)
	}
	assert.ElementsMatch(t, scheduleOps(schedule), scheduleOps(mutated))
}

func TestSwapOpTargetMutatorNoCandidates(t *testing.T) {
	s := NewList[*Choice]()
	s.Append(&Choice{Type: "Op", Round: 0, Kind: OpRemoveNode, Node: "a"})
	s.Append(&Choice{Type: "ClientRequest", Round: 1, Request: "1"})
	_, ok := NewSwapOpTargetMutator(1).Mutate(s)
	assert.False(t, ok)
}

func TestSwapOpOrderMutator(t *testing.T) {
	schedule := testSchedule()
	mutated, ok := NewSwapOpOrderMutator(2).Mutate(schedule)
	require.True(t, ok)

	require.Equal(t, schedule.Size(), mutated.Size())
	assert.ElementsMatch(t, scheduleOps(schedule), scheduleOps(mutated))

	// Non-op choices are left where they were.
	orig, _ := schedule.Get(2)
	moved, _ := mutated.Get(2)
	assert.Equal(t, orig, moved)
}

func TestSwapOpOrderMutatorTooShort(t *testing.T) {
	s := NewList[*Choice]()
	s.Append(&Choice{Type: "Op", Round: 0, Kind: OpRemoveNode, Node: "a"})
	_, ok := NewSwapOpOrderMutator(1).Mutate(s)
	assert.False(t, ok)
}

func TestCombineMutators(t *testing.T) {
	combined := CombineMutators(NewSwapOpTargetMutator(1), NewSwapOpOrderMutator(1))
	mutated, ok := combined.Mutate(testSchedule())
	require.True(t, ok)
	assert.Equal(t, testSchedule().Size(), mutated.Size())

	// A failing stage fails the whole chain.
	_, ok = CombineMutators(NewSwapOpTargetMutator(1), RandomMutator()).Mutate(testSchedule())
	assert.False(t, ok)
}

func TestCombineMutatorsDoesNotMutateInput(t *testing.T) {
	schedule := testSchedule()
	before := copySchedule(schedule, defaultCopyFilter())
	CombineMutators(NewSwapOpTargetMutator(1)).Mutate(schedule)
	require.Equal(t, before.Size(), schedule.Size())
	for i, ch := range before.Iter() {
		got, _ := schedule.Get(i)
		assert.Equal(t, ch, got)
	}
}
