package controller

import (
	"time"

	"github.com/kbukum/assetgraph/dag"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// State is the phase a controller is in.
type State string

const (
	StateIdle             State = "idle"
	StatePerformingSetup  State = "performing-setup"
	StatePerformingRun    State = "performing-run"
	StateDone             State = "done"
	StateAbortedBeforeRun State = "aborted-before-run"
	// StateCancelled is reached when the context ends between two visits.
	StateCancelled State = "cancelled"
)

// Options configures one Perform call.
type Options struct {
	// Target selects per-target settings. Empty means graph.DefaultTarget.
	Target string
	// ActualRun runs Run after a clean Setup. Otherwise only Setup runs.
	ActualRun bool
	// OnError is called for every node error as soon as it happens.
	OnError func(*errors.NodeError)
	// OnProgress is called after every visit. The deltas of one pass sum
	// to 1.
	OnProgress func(node *graph.Node, delta float64)
	// Seeds maps a Loader id to the files it emits instead of scanning.
	Seeds map[string][]string
}

// Outcome is the result of a Perform call.
type Outcome struct {
	Graph    *graph.Graph
	Schedule *dag.Schedule
	Target   string
	State    State
	// Seeds are the seed overrides the passes ran with.
	Seeds map[string][]string
	// Setup is nil when a cached Setup was reused.
	Setup *dag.Result
	Run   *dag.Result
	// Errors holds every node error in visit order.
	Errors   []*errors.NodeError
	Duration time.Duration
}

// OK reports whether no node failed.
func (o *Outcome) OK() bool { return len(o.Errors) == 0 }

// SetupSkipped reports whether a cached Setup was reused.
func (o *Outcome) SetupSkipped() bool { return o.Setup == nil }

// Last returns the result of the last pass that ran.
func (o *Outcome) Last() *dag.Result {
	if o.Run != nil {
		return o.Run
	}
	return o.Setup
}

// Deliveries returns what the last pass delivered, by connection id.
func (o *Outcome) Deliveries() map[string]operation.Input {
	if r := o.Last(); r != nil {
		return r.Deliveries
	}
	return nil
}

// Visited returns the number of nodes visited by the last pass.
func (o *Outcome) Visited() int {
	if r := o.Last(); r != nil {
		return len(r.Nodes)
	}
	return 0
}
