package dag

import (
	"context"
	"time"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
	"github.com/kbukum/assetgraph/util"
)

// Visit is one node visit handed to a Step.
type Visit struct {
	Phase operation.Phase
	Node  *graph.Node
	// Index is the position of Node in the schedule; Total its length.
	Index int
	Total int
	// Inputs holds one entry per incoming connection, delivered or not.
	Inputs  []operation.Input
	Outputs []*graph.Connection
}

// Step performs one node visit. A returned error marks the node failed;
// whatever it emitted is discarded.
type Step interface {
	Visit(ctx context.Context, v *Visit, emit operation.Emit) error
}

// StepFunc adapts a function to Step.
type StepFunc func(ctx context.Context, v *Visit, emit operation.Emit) error

func (f StepFunc) Visit(ctx context.Context, v *Visit, emit operation.Emit) error {
	return f(ctx, v, emit)
}

// Engine executes a schedule one node at a time.
type Engine struct {
	Phase operation.Phase
	// OnVisited is called synchronously after every visit.
	OnVisited func(NodeResult)
}

// Execute visits every node of s in order. Node errors are recorded in the
// result and do not stop the traversal; integrity violations and context
// cancellation do. ctx is checked between visits only.
func (e *Engine) Execute(ctx context.Context, s *Schedule, step Step) (*Result, error) {
	start := time.Now()
	result := &Result{
		Phase:      e.Phase,
		Deliveries: make(map[string]operation.Input),
	}
	visited := make(map[string]bool, s.Len())

	for i, n := range s.Order {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		v := &Visit{
			Phase:   e.Phase,
			Node:    n,
			Index:   i,
			Total:   s.Len(),
			Inputs:  e.inputs(s, n, result.Deliveries),
			Outputs: s.Outgoing(n.ID),
		}

		var (
			pending   []operation.Input
			violation error
		)
		emit := func(conn *graph.Connection, g asset.Group, cached []string) {
			switch {
			case violation != nil:
			case conn == nil || conn.FromNodeID != n.ID:
				violation = errors.GraphIntegrity("dag: node %q emitted on a connection it does not own", n.ID)
			case visited[conn.ToNodeID] || conn.ToNodeID == n.ID:
				violation = errors.GraphIntegrity("dag: connection %q delivers to already visited node %q", conn.ID, conn.ToNodeID)
			default:
				pending = append(pending, operation.Input{Connection: conn, Group: g, Cached: cached, Delivered: true})
			}
		}

		visitStart := time.Now()
		err := step.Visit(ctx, v, emit)
		visited[n.ID] = true
		if violation != nil {
			result.Duration = time.Since(start)
			return result, violation
		}

		nr := NodeResult{
			NodeID:   n.ID,
			Name:     n.Name,
			Kind:     string(n.Kind()),
			Status:   StatusCompleted,
			Duration: time.Since(visitStart),
			Inputs:   v.Inputs,
			Error:    err,
		}
		if err != nil {
			nr.Status = StatusFailed
		} else {
			for _, in := range pending {
				deliver(result.Deliveries, in)
			}
		}
		result.Nodes = append(result.Nodes, nr)
		if e.OnVisited != nil {
			e.OnVisited(nr)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) inputs(s *Schedule, n *graph.Node, deliveries map[string]operation.Input) []operation.Input {
	conns := s.Incoming(n.ID)
	inputs := make([]operation.Input, 0, len(conns))
	for _, c := range conns {
		in, ok := deliveries[c.ID]
		if !ok {
			in = operation.Input{Connection: c, Group: asset.Group{}}
		}
		in.Point = n.FindInputPoint(c.ToPointID)
		inputs = append(inputs, in)
	}
	return inputs
}

// deliver stores in, merging with an earlier delivery on the same connection.
func deliver(deliveries map[string]operation.Input, in operation.Input) {
	prev, ok := deliveries[in.Connection.ID]
	if !ok {
		deliveries[in.Connection.ID] = in
		return
	}
	prev.Group = asset.Merge(prev.Group, in.Group)
	prev.Cached = util.Unique(append(append([]string(nil), prev.Cached...), in.Cached...))
	deliveries[in.Connection.ID] = prev
}
