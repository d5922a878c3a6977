package graphtest

import (
	"context"
	"sync"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// Call records one invocation of a Recorder.
type Call struct {
	Phase    operation.Phase
	NodeID   string
	NodeName string
	Inputs   []operation.Input
	// InputsUnchanged is the flag the request carried.
	InputsUnchanged bool
}

// Recorder is a configurable operation for every node kind. It records
// calls and, by default, passes the merged input to every outgoing
// connection.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	outputs map[string]asset.Group
	errs    map[string]error
	panics  map[string]any
}

var (
	_ operation.Operation     = (*Recorder)(nil)
	_ operation.Postprocessor = (*Recorder)(nil)
)

// NewRecorder creates a pass-through Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		outputs: make(map[string]asset.Group),
		errs:    make(map[string]error),
		panics:  make(map[string]any),
	}
}

// Emit makes the node named name emit g instead of its merged input.
func (r *Recorder) Emit(name string, g asset.Group) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[name] = g
	return r
}

// Fail makes the node named name return err during phase.
func (r *Recorder) Fail(name string, phase operation.Phase, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[key(name, phase)] = err
	return r
}

// Panic makes the node named name panic with v during phase.
func (r *Recorder) Panic(name string, phase operation.Phase, v any) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics[key(name, phase)] = v
	return r
}

func (r *Recorder) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	return r.handle(req, emit)
}

func (r *Recorder) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	return r.handle(req, emit)
}

// Postprocess records the call and returns the configured failure, if any.
func (r *Recorder) Postprocess(ctx context.Context, req *operation.Request, actualRun bool) error {
	return r.handle(req, nil)
}

func (r *Recorder) handle(req *operation.Request, emit operation.Emit) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{
		Phase:           req.Phase,
		NodeID:          req.Node.ID,
		NodeName:        req.Node.Name,
		Inputs:          req.Inputs,
		InputsUnchanged: req.InputsUnchanged,
	})
	k := key(req.Node.Name, req.Phase)
	p, shouldPanic := r.panics[k]
	err := r.errs[k]
	out, fixed := r.outputs[req.Node.Name]
	r.mu.Unlock()

	if shouldPanic {
		panic(p)
	}
	if err != nil {
		return err
	}
	if emit == nil {
		return nil
	}
	if !fixed {
		out = req.Merged()
	}
	operation.EmitAll(req, emit, out, req.Cached())
	return nil
}

// Calls returns every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Visits returns the names of the nodes called during phase, in call order.
func (r *Recorder) Visits(phase operation.Phase) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, c := range r.calls {
		if c.Phase == phase {
			names = append(names, c.NodeName)
		}
	}
	return names
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func key(name string, phase operation.Phase) string {
	return name + "/" + string(phase)
}

// Registry returns a registry using op for every node kind.
func Registry(op operation.Operation) *operation.Registry {
	reg := operation.NewRegistry()
	for _, k := range graph.Kinds {
		reg.Register(k, op)
	}
	return reg
}
