package dag

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/graphtest"
	"github.com/kbukum/assetgraph/operation"
)

// diamond builds load -> {a, b} -> c.
func diamond(t *testing.T) (*graphtest.Builder, *graph.Graph) {
	t.Helper()
	b := graphtest.NewBuilder().
		Loader("load", "Assets").
		AddNode("a", graph.KindGrouping).
		AddNode("b", graph.KindGrouping).
		AddNode("c", graph.KindWarpIn).
		Connect("load", "a").
		Connect("load", "b").
		ConnectAs("a", "c", "from-a").
		ConnectAs("b", "c", "from-b")
	return b, b.MustBuild(t)
}

func stepOf(op operation.Operation) Step {
	return StepFunc(func(ctx context.Context, v *Visit, emit operation.Emit) error {
		req := &operation.Request{Phase: v.Phase, Node: v.Node, Inputs: v.Inputs, Outputs: v.Outputs}
		if v.Phase == operation.PhaseRun {
			return op.Run(ctx, req, emit)
		}
		return op.Setup(ctx, req, emit)
	})
}

func names(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestPlan_Order(t *testing.T) {
	b, g := diamond(t)

	s, err := Plan(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"load", "a", "b", "c"}, names(s.Order)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	wantLevels := [][]string{{b.ID("load")}, {b.ID("a"), b.ID("b")}, {b.ID("c")}}
	if diff := cmp.Diff(wantLevels, s.Levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"load"}, names(s.Sources())); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(s.Incoming(b.ID("c"))) != 2 || len(s.Outgoing(b.ID("load"))) != 2 {
		t.Error("adjacency does not match the graph")
	}
}

func TestPlan_TiesFollowGraphOrder(t *testing.T) {
	g := graphtest.NewBuilder().
		AddNode("z", graph.KindWarpIn).
		AddNode("y", graph.KindWarpIn).
		AddNode("x", graph.KindWarpIn).
		MustBuild(t)

	s, err := Plan(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"z", "y", "x"}, names(s.Order)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_IntegrityErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *graph.Graph
	}{
		{"cycle", func(t *testing.T) *graph.Graph {
			return graphtest.NewBuilder().
				AddNode("a", graph.KindGrouping).
				AddNode("b", graph.KindGrouping).
				Connect("a", "b").
				Connect("b", "a").
				MustBuild(t)
		}},
		{"unknown endpoint", func(t *testing.T) *graph.Graph {
			b := graphtest.NewBuilder().AddNode("a", graph.KindGrouping)
			g := b.MustBuild(t)
			g.Connections = append(g.Connections, &graph.Connection{ID: "c1", FromNodeID: "ghost", ToNodeID: b.ID("a")})
			return g
		}},
		{"duplicate node", func(t *testing.T) *graph.Graph {
			g := graphtest.NewBuilder().AddNode("a", graph.KindGrouping).MustBuild(t)
			g.Nodes = append(g.Nodes, g.Nodes[0])
			return g
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.build(t))
			if !errors.IsCode(err, errors.ErrCodeGraphIntegrity) {
				t.Fatalf("expected GRAPH_INTEGRITY, got %v", err)
			}
		})
	}
}

func TestExecute_VisitsOnce(t *testing.T) {
	b, g := diamond(t)
	s, err := Plan(g)
	if err != nil {
		t.Fatal(err)
	}
	x := asset.New("/p", "/p/Assets/x.png")
	rec := graphtest.NewRecorder().Emit("load", asset.Single(x))

	var visited []string
	e := &Engine{Phase: operation.PhaseSetup, OnVisited: func(nr NodeResult) { visited = append(visited, nr.Name) }}
	res, err := e.Execute(context.Background(), s, stepOf(rec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"load", "a", "b", "c"}
	if diff := cmp.Diff(want, rec.Visits(operation.PhaseSetup)); diff != "" {
		t.Errorf("visits mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("OnVisited mismatch (-want +got):\n%s", diff)
	}
	if len(res.Failed()) != 0 {
		t.Fatalf("expected no failures, got %v", res.Failed())
	}

	nr, ok := res.Node(b.ID("c"))
	if !ok {
		t.Fatal("expected a result for c")
	}
	if len(nr.Inputs) != 2 {
		t.Fatalf("expected 2 inputs at c, got %d", len(nr.Inputs))
	}
	for _, in := range nr.Inputs {
		if !in.Delivered || in.Group.Len() != 1 {
			t.Errorf("expected delivered input with one asset on %s", in.Connection.Label)
		}
		if in.Point == nil || in.Point.ID != b.Node("c").Inputs[0].ID {
			t.Error("expected input point to be resolved")
		}
	}
}

func TestExecute_FailedNodeDiscardsEmits(t *testing.T) {
	b, g := diamond(t)
	s, _ := Plan(g)
	x := asset.New("/p", "/p/Assets/x.png")
	rec := graphtest.NewRecorder().
		Emit("load", asset.Single(x)).
		Fail("a", operation.PhaseRun, errors.NodeRuntime(b.ID("a"), "boom"))

	e := &Engine{Phase: operation.PhaseRun}
	res, err := e.Execute(context.Background(), s, stepOf(rec))
	if err != nil {
		t.Fatalf("node errors must not stop the traversal: %v", err)
	}

	failed := res.Failed()
	if len(failed) != 1 || failed[0].NodeID != b.ID("a") {
		t.Fatalf("expected a to fail, got %v", failed)
	}
	if !errors.IsCode(failed[0].Error, errors.ErrCodeNodeRuntime) {
		t.Errorf("expected the node error to be kept, got %v", failed[0].Error)
	}

	nr, _ := res.Node(b.ID("c"))
	var delivered, missing int
	for _, in := range nr.Inputs {
		if in.Delivered {
			delivered++
		} else {
			missing++
			if in.Group == nil || in.Group.Len() != 0 {
				t.Error("undelivered input should carry an empty group")
			}
		}
	}
	if delivered != 1 || missing != 1 {
		t.Fatalf("expected one delivered and one missing input, got %d and %d", delivered, missing)
	}
	if diff := cmp.Diff([]string{"load", "a", "b", "c"}, rec.Visits(operation.PhaseRun)); diff != "" {
		t.Errorf("downstream of a failure should still run (-want +got):\n%s", diff)
	}
}

func TestExecute_MergesRepeatedEmits(t *testing.T) {
	b := graphtest.NewBuilder().
		AddNode("src", graph.KindGrouping).
		AddNode("dst", graph.KindGrouping).
		Connect("src", "dst")
	g := b.MustBuild(t)
	s, _ := Plan(g)

	x := asset.New("/p", "/p/x.png")
	y := asset.New("/p", "/p/y.png")
	step := StepFunc(func(_ context.Context, v *Visit, emit operation.Emit) error {
		for _, c := range v.Outputs {
			emit(c, asset.Single(x), []string{"k1"})
			emit(c, asset.Single(y, x), []string{"k1", "k2"})
		}
		return nil
	})

	res, err := (&Engine{Phase: operation.PhaseRun}).Execute(context.Background(), s, step)
	if err != nil {
		t.Fatal(err)
	}
	in := res.Deliveries[g.Connections[0].ID]
	if in.Group.Len() != 2 {
		t.Errorf("expected merged group of 2 assets, got %d", in.Group.Len())
	}
	if diff := cmp.Diff([]string{"k1", "k2"}, in.Cached); diff != "" {
		t.Errorf("cached keys mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_IntegrityViolation(t *testing.T) {
	tests := []struct {
		name string
		conn func(b *graphtest.Builder, g *graph.Graph) *graph.Connection
	}{
		{"foreign connection", func(b *graphtest.Builder, g *graph.Graph) *graph.Connection {
			return g.Outgoing(b.ID("load"))[0]
		}},
		{"back to visited node", func(b *graphtest.Builder, _ *graph.Graph) *graph.Connection {
			return &graph.Connection{ID: "back", FromNodeID: b.ID("a"), ToNodeID: b.ID("load")}
		}},
		{"nil connection", func(*graphtest.Builder, *graph.Graph) *graph.Connection { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, g := diamond(t)
			s, _ := Plan(g)
			bad := tt.conn(b, g)
			step := StepFunc(func(_ context.Context, v *Visit, emit operation.Emit) error {
				if v.Node.Name == "a" {
					emit(bad, asset.Group{}, nil)
				}
				return nil
			})

			res, err := (&Engine{Phase: operation.PhaseSetup}).Execute(context.Background(), s, step)
			if !errors.IsCode(err, errors.ErrCodeGraphIntegrity) {
				t.Fatalf("expected GRAPH_INTEGRITY, got %v", err)
			}
			if len(res.Nodes) != 1 {
				t.Errorf("expected traversal to stop at a, got %d results", len(res.Nodes))
			}
		})
	}
}

func TestExecute_ContextCancelled(t *testing.T) {
	_, g := diamond(t)
	s, _ := Plan(g)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	step := StepFunc(func(_ context.Context, v *Visit, _ operation.Emit) error {
		if v.Node.Name == "a" {
			cancel()
		}
		return nil
	})
	res, err := (&Engine{Phase: operation.PhaseRun}).Execute(ctx, s, step)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Nodes) != 2 {
		t.Fatalf("expected the visit in progress to finish, got %d results", len(res.Nodes))
	}
}
