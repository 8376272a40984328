package topofuzz

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path"
	"strconv"
	"sync"
)

// CoverageStats holds the coverage reached so far by the nemesis.
type CoverageStats struct {
	// UniqueTopologies is the number of distinct topology versions the
	// model has passed through across all runs.
	UniqueTopologies int
}

// Guider decides which runs were interesting enough to mutate further.
type Guider interface {
	// Check takes a run's schedule trace, event trace and the topology
	// versions it reached, and returns the number of previously unseen
	// topologies plus the coverage gain ratio.
	Check(*List[*Choice], *List[*Event], *List[Topology]) (int, float64)
	// Coverage returns the coverage statistics so far.
	Coverage() CoverageStats
	// Reset resets the guider's state.
	Reset(string)
}

// TopologyGuider fingerprints every topology version a run reaches and
// counts a run as interesting when it produces a fingerprint not seen
// before. Optionally it records each run's traces to disk as JSON.
type TopologyGuider struct {
	topologiesMap map[string]bool
	schedulesMap  map[string]bool
	recordPath    string
	recordTraces  bool
	count         int

	lock *sync.Mutex
}

var _ Guider = &TopologyGuider{}

func NewTopologyGuider(recordPath string, recordTraces bool) *TopologyGuider {
	if recordPath != "" {
		if _, err := os.Stat(recordPath); err == nil {
			os.RemoveAll(recordPath)
		}
		os.Mkdir(recordPath, 0777)
	}
	return &TopologyGuider{
		topologiesMap: make(map[string]bool),
		schedulesMap:  make(map[string]bool),
		recordPath:    recordPath,
		recordTraces:  recordTraces,
		count:         0,
		lock:          new(sync.Mutex),
	}
}

func (t *TopologyGuider) Reset(key string) {
	t.lock.Lock()
	t.topologiesMap = make(map[string]bool)
	t.schedulesMap = make(map[string]bool)
	t.lock.Unlock()
}

func (t *TopologyGuider) Coverage() CoverageStats {
	t.lock.Lock()
	defer t.lock.Unlock()
	return CoverageStats{
		UniqueTopologies: len(t.topologiesMap),
	}
}

// fingerprint is the canonical hash of a topology version. JSON over the
// ordered node sequence is stable for equal values.
func fingerprint(topology Topology) string {
	bs, _ := json.Marshal(topology)
	sum := sha256.Sum256(bs)
	return hex.EncodeToString(sum[:])
}

func (t *TopologyGuider) Check(trace *List[*Choice], eventTrace *List[*Event], topologies *List[Topology]) (int, float64) {
	bs, _ := json.Marshal(trace)
	sum := sha256.Sum256(bs)
	scheduleHash := hex.EncodeToString(sum[:])
	t.lock.Lock()
	if _, ok := t.schedulesMap[scheduleHash]; !ok {
		t.schedulesMap[scheduleHash] = true
	}
	curTopologies := len(t.topologiesMap)
	t.lock.Unlock()

	numNewTopologies := 0
	for _, topology := range topologies.Iter() {
		hash := fingerprint(topology)
		t.lock.Lock()
		if _, ok := t.topologiesMap[hash]; !ok {
			numNewTopologies += 1
			t.topologiesMap[hash] = true
		}
		t.lock.Unlock()
	}
	t.recordRun(trace, eventTrace, topologies)
	return numNewTopologies, float64(numNewTopologies) / float64(max(curTopologies, 1))
}

func (t *TopologyGuider) recordRun(trace *List[*Choice], eventTrace *List[*Event], topologies *List[Topology]) {
	if !t.recordTraces {
		return
	}
	filePath := path.Join(t.recordPath, strconv.Itoa(t.count)+".json")
	t.count += 1
	data := map[string]interface{}{
		"schedule":    trace,
		"event_trace": eventTrace,
		"topologies":  topologies,
	}
	dataB, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return
	}
	file, err := os.Create(filePath)
	if err != nil {
		return
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	writer.Write(dataB)
	writer.Flush()
}
