package topofuzz

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Nemesis drives adversarial membership churn against the cluster under
// test while keeping a speculative topology model of what should now be
// true. Each run it enumerates the legal transitions, issues one real
// action per round, and advances the model without waiting for the cluster
// to converge. Schedules that reach new topologies are mutated and
// replayed.
//
// The nemesis owns the single mutable current-topology reference; the
// model itself is immutable values all the way down.
type Nemesis struct {
	config             *Config
	clusterConstructor ClusterConstructor
	guider             Guider
	mutator            Mutator
	scheduleQueue      *Queue[*List[*Choice]]
	rand               *rand.Rand
	log                *logrus.Entry

	mu      sync.Mutex
	current Topology

	stats map[string]interface{}
}

type runCtx struct {
	trace          *List[*Choice]
	eventTrace     *List[*Event]
	topologies     *List[Topology]
	opChoices      *Queue[*Choice]
	clientRequests map[int]string
	rand           *rand.Rand

	Error error
}

func (t *runCtx) SetError(err error) {
	t.Error = err
}

func (t *runCtx) GetError() error {
	return t.Error
}

func (t *runCtx) IsError() bool {
	return t.Error != nil
}

// NextOp picks the operation for this round: the next replayed choice when
// it is still legal against the current topology, otherwise a uniformly
// random legal one.
func (t *runCtx) NextOp(round int, legal []Op) Op {
	var op Op
	picked := false
	if t.opChoices.Size() > 0 {
		c, _ := t.opChoices.Pop()
		for _, l := range legal {
			if l.Kind == c.Kind && l.Node == c.Node {
				op = l
				picked = true
				break
			}
		}
	}
	if !picked {
		op = legal[t.rand.Intn(len(legal))]
	}
	t.trace.Append(&Choice{
		Type:    "Op",
		Round:   round,
		Kind:    op.Kind,
		Node:    op.Node,
		JoinVia: op.JoinVia,
	})
	t.eventTrace.Append(&Event{
		Name: string(op.Kind),
		Node: op.Node,
		Params: map[string]interface{}{
			"round": round,
		},
	})
	return op
}

func (t *runCtx) IsClientRequest(round int) (string, bool) {
	req, ok := t.clientRequests[round]
	if ok {
		t.trace.Append(&Choice{
			Type:    "ClientRequest",
			Round:   round,
			Request: req,
		})
	}
	return req, ok
}

// NewNemesis creates a Nemesis from a validated config and its
// collaborators: the cluster boundary, the coverage guider and the
// schedule mutator.
func NewNemesis(config *Config, constructor ClusterConstructor, guider Guider, mutator Mutator) *Nemesis {
	n := &Nemesis{
		config:             config,
		clusterConstructor: constructor,
		guider:             guider,
		mutator:            mutator,
		scheduleQueue:      NewQueue[*List[*Choice]](),
		rand:               rand.New(rand.NewSource(time.Now().UnixNano())),
		log:                logrus.WithField("component", "nemesis"),
		stats:              make(map[string]interface{}),
	}
	n.stats["random_runs"] = 0
	n.stats["mutated_runs"] = 0
	n.stats["run_errors"] = make(map[string]bool)
	n.stats["error_runs"] = make(map[string][]string)
	return n
}

// Current returns a copy of the topology the nemesis currently believes
// in. The copy keeps callers from sharing the guarded value.
func (n *Nemesis) Current() Topology {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current.Copy()
}

func (n *Nemesis) setCurrent(t Topology) {
	n.mu.Lock()
	n.current = t
	n.mu.Unlock()
}

// Stats returns the accumulated run statistics.
func (n *Nemesis) Stats() map[string]interface{} {
	return n.stats
}

func (n *Nemesis) seed() {
	n.scheduleQueue.Reset()
	for i := 0; i < n.config.SeedSchedules; i++ {
		trace, _, _ := n.RunIteration(fmt.Sprintf("pop_%d", i), nil)
		n.scheduleQueue.Push(copySchedule(trace, defaultCopyFilter()))
	}
}

// Run executes the configured number of runs. Each run either replays a
// mutated schedule from the queue or improvises a fresh random one; runs
// that reach topologies the guider has not seen before get mutated into
// further schedules. The final coverage is returned.
func (n *Nemesis) Run() CoverageStats {
	coverages := make([]CoverageStats, 0)
	for i := 0; i < n.config.Runs; i++ {
		if n.config.ReseedEvery > 0 && i%n.config.ReseedEvery == 0 {
			n.seed()
		}
		var mimic *List[*Choice] = nil
		if n.scheduleQueue.Size() > 0 {
			n.stats["mutated_runs"] = n.stats["mutated_runs"].(int) + 1
			mimic, _ = n.scheduleQueue.Pop()
		} else {
			n.stats["random_runs"] = n.stats["random_runs"].(int) + 1
		}
		trace, eventTrace, topologies := n.RunIteration(fmt.Sprintf("fuzz_%d", i), mimic)
		if numNewTopologies, _ := n.guider.Check(trace, eventTrace, topologies); numNewTopologies > 0 {
			numMutations := numNewTopologies * n.config.MutationsPerSchedule
			for j := 0; j < numMutations; j++ {
				new, ok := n.mutator.Mutate(trace)
				if ok {
					n.scheduleQueue.Push(copySchedule(new, defaultCopyFilter()))
				}
			}
		}
		coverage := n.guider.Coverage()
		coverages = append(coverages, coverage)
		n.log.WithFields(logrus.Fields{
			"run":               i + 1,
			"runs":              n.config.Runs,
			"unique_topologies": coverage.UniqueTopologies,
		}).Debug("run finished")
	}
	return coverages[len(coverages)-1]
}

// RunIteration executes a single run: build the initial topology, push its
// log configuration, then for each round pick a legal operation, issue the
// real action, and speculatively apply it to the model. It returns the
// schedule trace, the event trace, and the sequence of topology versions
// reached.
func (n *Nemesis) RunIteration(run string, mimic *List[*Choice]) (*List[*Choice], *List[*Event], *List[Topology]) {
	rCtx := &runCtx{
		trace:          NewList[*Choice](),
		eventTrace:     NewList[*Event](),
		topologies:     NewList[Topology](),
		opChoices:      NewQueue[*Choice](),
		clientRequests: make(map[int]string),
		rand:           n.rand,
	}
	cluster := n.clusterConstructor.NewCluster(n.config.Nodes)
	if mimic != nil {
		for i := 0; i < mimic.Size(); i++ {
			ch, _ := mimic.Get(i)
			switch ch.Type {
			case "Op":
				rCtx.opChoices.Push(ch.Copy())
			case "ClientRequest":
				rCtx.clientRequests[ch.Round] = ch.Request
			}
		}
	} else {
		rounds := intRange(0, n.config.Rounds)
		i := 1
		for _, r := range sample(rounds, n.config.RequestsPerRun, n.rand) {
			rCtx.clientRequests[r] = strconv.Itoa(i)
			i++
		}
	}

	cluster.Reset()
	initial, err := Build(n.config.InitialNodeList(), n.config.ReplicaCount)
	if err != nil {
		rCtx.SetError(err)
		return rCtx.trace, rCtx.eventTrace, rCtx.topologies
	}
	n.setCurrent(initial)
	rCtx.topologies.Append(initial)

	ctx := &RunContext{runCtx: rCtx}
	if err := cluster.PushLogConfiguration(ctx, initial.LogConfiguration()); err != nil {
		rCtx.SetError(err)
		return rCtx.trace, rCtx.eventTrace, rCtx.topologies
	}
RoundLoop:
	for j := 0; j < n.config.Rounds; j++ {
		current := n.Current()
		legal := GenerateOps(n.config.Nodes, current, n.rand)
		if len(legal) > 0 {
			op := rCtx.NextOp(j, legal)
			var err error
			switch op.Kind {
			case OpAddNode:
				err = cluster.AddNode(ctx, op.Node, op.JoinVia)
			case OpRemoveLogNode:
				err = cluster.RemoveLogNode(ctx, op.Node)
			case OpRemoveNode:
				err = cluster.RemoveNode(ctx, op.Node)
			}
			if err != nil {
				rCtx.SetError(err)
				break RoundLoop
			}
			next, err := Apply(current, op, n.rand)
			if err != nil {
				rCtx.SetError(err)
				break RoundLoop
			}
			n.setCurrent(next)
			rCtx.topologies.Append(next)
			if op.Kind == OpRemoveLogNode {
				// The new log configuration is computed from the
				// post-removal topology and pushed before the removal
				// has actually completed.
				if err := cluster.PushLogConfiguration(ctx, next.LogConfiguration()); err != nil {
					rCtx.SetError(err)
					break RoundLoop
				}
			}
		}
		if reqNum, ok := rCtx.IsClientRequest(j); ok {
			if err := cluster.ClientRequest(ctx, reqNum); err != nil {
				rCtx.SetError(err)
				break RoundLoop
			}
		}
	}
	if rCtx.IsError() {
		errS := rCtx.GetError().Error()
		n.stats["run_errors"].(map[string]bool)[errS] = true
		if _, ok := n.stats["error_runs"].(map[string][]string)[errS]; !ok {
			n.stats["error_runs"].(map[string][]string)[errS] = make([]string, 0)
		}
		n.stats["error_runs"].(map[string][]string)[errS] = append(n.stats["error_runs"].(map[string][]string)[errS], run)
		n.log.WithFields(logrus.Fields{
			"run":   run,
			"error": errS,
		}).Warn("run aborted")
	}

	return rCtx.trace, rCtx.eventTrace, rCtx.topologies
}

// RunContext is passed across the cluster boundary and allows cluster
// implementations to add events to the run's event trace. A new RunContext
// is created for each run.
type RunContext struct {
	runCtx *runCtx
}

// AddEvent adds an event to the event trace.
func (r *RunContext) AddEvent(e *Event) {
	r.runCtx.eventTrace.Append(e)
}
