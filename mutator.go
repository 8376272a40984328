package topofuzz

import (
	"math/rand"
	"time"
)

// Mutator is an interface that defines the method for mutating a run's
// operation schedule.
type Mutator interface {
	// Mutate takes a schedule and returns a mutated schedule and a boolean
	// indicating whether the mutation was successful or not.
	Mutate(*List[*Choice]) (*List[*Choice], bool)
}

type randomMutator struct{}

func (r *randomMutator) Mutate(_ *List[*Choice]) (*List[*Choice], bool) {
	return nil, false
}

// RandomMutator returns a Mutator that does not perform any mutations, so
// the nemesis falls back to fresh random schedules.
func RandomMutator() Mutator {
	return &randomMutator{}
}

// SwapOpTargetMutator is a Mutator that swaps the target nodes of pairs of
// operation choices of the same kind. Keeping the kinds in place means the
// mutated schedule has a fair chance of still being legal on replay.
type SwapOpTargetMutator struct {
	NumSwaps int
	r        *rand.Rand
}

var _ Mutator = &SwapOpTargetMutator{}

func NewSwapOpTargetMutator(swaps int) *SwapOpTargetMutator {
	return &SwapOpTargetMutator{
		NumSwaps: swaps,
		r:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SwapOpTargetMutator) Mutate(schedule *List[*Choice]) (*List[*Choice], bool) {
	byKind := make(map[OpKind][]int)
	for i, ch := range schedule.Iter() {
		if ch.Type == "Op" {
			byKind[ch.Kind] = append(byKind[ch.Kind], i)
		}
	}
	candidates := make([]OpKind, 0)
	for kind, indices := range byKind {
		if len(indices) >= 2 {
			candidates = append(candidates, kind)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	newSchedule := copySchedule(schedule, defaultCopyFilter())
	for i := 0; i < s.NumSwaps; i++ {
		kind := candidates[s.r.Intn(len(candidates))]
		sp := sample(byKind[kind], 2, s.r)
		if len(sp) < 2 {
			continue
		}
		iCh, _ := newSchedule.Get(sp[0])
		jCh, _ := newSchedule.Get(sp[1])

		iChNew := iCh.Copy()
		iChNew.Node = jCh.Node
		jChNew := jCh.Copy()
		jChNew.Node = iCh.Node

		newSchedule.Set(sp[0], iChNew)
		newSchedule.Set(sp[1], jChNew)
	}
	return newSchedule, true
}

// SwapOpOrderMutator is a Mutator that swaps the positions of pairs of
// operation choices in a schedule, reordering the churn the nemesis
// replays.
type SwapOpOrderMutator struct {
	NumSwaps int
	rand     *rand.Rand
}

var _ Mutator = &SwapOpOrderMutator{}

func NewSwapOpOrderMutator(swaps int) *SwapOpOrderMutator {
	return &SwapOpOrderMutator{
		NumSwaps: swaps,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SwapOpOrderMutator) Mutate(schedule *List[*Choice]) (*List[*Choice], bool) {
	opIndices := make([]int, 0)
	for i, choice := range schedule.Iter() {
		if choice.Type == "Op" {
			opIndices = append(opIndices, i)
		}
	}
	numOpIndices := len(opIndices)
	if numOpIndices < 2 {
		return nil, false
	}
	swaps := s.NumSwaps
	if numOpIndices < swaps {
		swaps = numOpIndices
	}
	newSchedule := copySchedule(schedule, defaultCopyFilter())
	for k := 0; k < swaps; k++ {
		i := opIndices[s.rand.Intn(numOpIndices)]
		j := opIndices[s.rand.Intn(numOpIndices)]
		first, _ := newSchedule.Get(i)
		second, _ := newSchedule.Get(j)
		newSchedule.Set(i, second.Copy())
		newSchedule.Set(j, first.Copy())
	}
	return newSchedule, true
}

type combinedMutator struct {
	mutators []Mutator
}

var _ Mutator = &combinedMutator{}

func (c *combinedMutator) Mutate(schedule *List[*Choice]) (*List[*Choice], bool) {
	curSchedule := copySchedule(schedule, defaultCopyFilter())
	for _, m := range c.mutators {
		nextSchedule, ok := m.Mutate(curSchedule)
		if !ok {
			return nil, false
		}
		curSchedule = nextSchedule
	}
	return curSchedule, true
}

// CombineMutators combines multiple Mutators into a single Mutator.
// It applies each Mutator in sequence to the schedule, returning the final
// mutated schedule.
func CombineMutators(mutators ...Mutator) Mutator {
	return &combinedMutator{
		mutators: mutators,
	}
}

func sample(l []int, size int, r *rand.Rand) []int {
	if size >= len(l) {
		return l
	}
	indexes := make(map[int]bool)
	for len(indexes) < size {
		i := r.Intn(len(l))
		indexes[i] = true
	}
	samples := make([]int, size)
	i := 0
	for k := range indexes {
		samples[i] = l[k]
		i++
	}
	return samples
}

func intRange(start, end int) []int {
	res := make([]int, end-start)
	for i := start; i < end; i++ {
		res[i-start] = i
	}
	return res
}
