package topofuzz

// Cluster is the boundary to the system under test. Implementations issue
// the real membership actions the nemesis decided on; none of them is
// expected to wait for the cluster to converge, and the model is advanced
// speculatively regardless.
type Cluster interface {
	Reset()
	AddNode(rCtx *RunContext, node string, joinVia string) error
	RemoveNode(rCtx *RunContext, node string) error
	RemoveLogNode(rCtx *RunContext, node string) error
	PushLogConfiguration(rCtx *RunContext, config [][]string) error
	ClientRequest(rCtx *RunContext, reqNum string) error
}

type ClusterConstructor interface {
	NewCluster(nodes []string) Cluster
}
