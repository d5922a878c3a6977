package dag

import (
	"time"

	"github.com/kbukum/assetgraph/operation"
)

// Node visit statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result holds the outcome of executing a schedule for one phase.
type Result struct {
	Phase operation.Phase
	Nodes []NodeResult
	// Deliveries maps connection ids to what was delivered on them.
	Deliveries map[string]operation.Input
	Duration   time.Duration
}

// NodeResult holds the outcome of a single node visit.
type NodeResult struct {
	NodeID   string
	Name     string
	Kind     string
	Status   string
	Duration time.Duration
	// Inputs is what the node received.
	Inputs []operation.Input
	Error  error
}

// Failed returns the visits that returned an error, in visit order.
func (r *Result) Failed() []NodeResult {
	var out []NodeResult
	for _, nr := range r.Nodes {
		if nr.Status == StatusFailed {
			out = append(out, nr)
		}
	}
	return out
}

// Node returns the result of node id.
func (r *Result) Node(id string) (NodeResult, bool) {
	for _, nr := range r.Nodes {
		if nr.NodeID == id {
			return nr, true
		}
	}
	return NodeResult{}, false
}
