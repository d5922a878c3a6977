package operation

import (
	"context"
	"slices"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/util"
)

// Phase is the pass an operation is called for.
type Phase string

const (
	PhaseSetup       Phase = "setup"
	PhaseRun         Phase = "run"
	PhasePostprocess Phase = "postprocess"
)

// Input is what arrived on one incoming connection.
type Input struct {
	Connection *graph.Connection
	// Point is the input point on the receiving node.
	Point *graph.ConnectionPoint
	Group asset.Group
	// Cached lists keys the upstream node still considers valid.
	Cached []string
	// Delivered is false when the upstream node emitted nothing, e.g.
	// because it failed.
	Delivered bool
}

// Request describes one invocation of an operation.
type Request struct {
	Phase   Phase
	Target  string
	Node    *graph.Node
	Inputs  []Input
	Outputs []*graph.Connection
	Env     *Env
	Log     *logger.Logger
	// InputsUnchanged is true when every input is identical to the previous
	// Run of this node in the same session.
	InputsUnchanged bool
}

// Merged returns the union of all delivered inputs.
func (r *Request) Merged() asset.Group {
	groups := make([]asset.Group, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		if in.Delivered {
			groups = append(groups, in.Group)
		}
	}
	return asset.Merge(groups...)
}

// Cached returns the union of cached keys of all inputs.
func (r *Request) Cached() []string {
	var keys []string
	for _, in := range r.Inputs {
		keys = append(keys, in.Cached...)
	}
	keys = util.Unique(keys)
	slices.Sort(keys)
	return keys
}

// InputsAt returns the inputs that arrived on input point pointID.
func (r *Request) InputsAt(pointID string) []Input {
	return util.Filter(r.Inputs, func(in Input) bool {
		return in.Connection != nil && in.Connection.ToPointID == pointID
	})
}

// OutputsFrom returns the outgoing connections leaving output point pointID.
func (r *Request) OutputsFrom(pointID string) []*graph.Connection {
	return util.Filter(r.Outputs, func(c *graph.Connection) bool { return c.FromPointID == pointID })
}

// Logger returns the request logger, or a discarding one.
func (r *Request) Logger() *logger.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log
}

// Emit hands the result for one outgoing connection to the scheduler.
type Emit func(conn *graph.Connection, group asset.Group, cached []string)

// EmitAll sends the same group to every outgoing connection.
func EmitAll(req *Request, emit Emit, group asset.Group, cached []string) {
	for _, c := range req.Outputs {
		emit(c, group, cached)
	}
}

// Operation implements one node kind.
type Operation interface {
	// Setup validates the node and emits what Run would produce. It must
	// not modify the project.
	Setup(ctx context.Context, req *Request, emit Emit) error
	// Run performs the node's work and emits its results.
	Run(ctx context.Context, req *Request, emit Emit) error
}

// Postprocessor is implemented by operations that finalize artifacts once a
// whole Run pass succeeded. The request carries the inputs delivered during
// that pass.
type Postprocessor interface {
	Postprocess(ctx context.Context, req *Request, actualRun bool) error
}

// Func adapts a single function to Operation, calling it for both phases.
type Func func(ctx context.Context, req *Request, emit Emit) error

func (f Func) Setup(ctx context.Context, req *Request, emit Emit) error { return f(ctx, req, emit) }
func (f Func) Run(ctx context.Context, req *Request, emit Emit) error { return f(ctx, req, emit) }
