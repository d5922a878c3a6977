package graphtest

import (
	"fmt"
	"testing"

	"github.com/kbukum/assetgraph/graph"
)

// Builder provides a fluent API for constructing test graphs. Nodes are
// addressed by their name.
type Builder struct {
	g      *graph.Graph
	byName map[string]*graph.Node
	err    error
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{g: graph.New(), byName: make(map[string]*graph.Node)}
}

// AddNode adds a node of kind with default points. configure functions run
// on the new node before it is added.
func (b *Builder) AddNode(name string, kind graph.Kind, configure ...func(*graph.Node)) *Builder {
	if b.err != nil {
		return b
	}
	if _, dup := b.byName[name]; dup {
		b.err = fmt.Errorf("graphtest: node %q added twice", name)
		return b
	}
	n := graph.NewNode(name, kind, 0, float64(len(b.g.Nodes))*100)
	for _, fn := range configure {
		fn(n)
	}
	if err := b.g.AddNode(n); err != nil {
		b.err = err
		return b
	}
	b.byName[name] = n
	return b
}

// Loader adds a Loader reading path for every target.
func (b *Builder) Loader(name, path string) *Builder {
	return b.AddNode(name, graph.KindLoader, func(n *graph.Node) {
		lc, _ := graph.ConfigAs[*graph.LoaderConfig](n)
		lc.LoadPath = graph.Uniform(path)
	})
}

// Connect joins the first output point of from to the first input point
// of to.
func (b *Builder) Connect(from, to string) *Builder {
	if b.err != nil {
		return b
	}
	f, t := b.byName[from], b.byName[to]
	if f == nil || t == nil {
		b.err = fmt.Errorf("graphtest: connect %q -> %q: unknown node", from, to)
		return b
	}
	if len(f.Outputs) == 0 || len(t.Inputs) == 0 {
		b.err = fmt.Errorf("graphtest: connect %q -> %q: missing default point", from, to)
		return b
	}
	return b.connect(f, f.Outputs[0], t, t.Inputs[0], "")
}

// ConnectAs is Connect with an explicit connection label, needed when
// several connections fan in to the same input point.
func (b *Builder) ConnectAs(from, to, label string) *Builder {
	if b.err != nil {
		return b
	}
	f, t := b.byName[from], b.byName[to]
	if f == nil || t == nil || len(f.Outputs) == 0 || len(t.Inputs) == 0 {
		b.err = fmt.Errorf("graphtest: connect %q -> %q as %q: unknown node or point", from, to, label)
		return b
	}
	return b.connect(f, f.Outputs[0], t, t.Inputs[0], label)
}

// ConnectPoint joins the output point labelled fromLabel on from to the
// input point labelled toLabel on to.
func (b *Builder) ConnectPoint(from, fromLabel, to, toLabel string) *Builder {
	if b.err != nil {
		return b
	}
	f, t := b.byName[from], b.byName[to]
	if f == nil || t == nil {
		b.err = fmt.Errorf("graphtest: connect %q -> %q: unknown node", from, to)
		return b
	}
	fp, tp := pointByLabel(f.Outputs, fromLabel), pointByLabel(t.Inputs, toLabel)
	if fp == nil || tp == nil {
		b.err = fmt.Errorf("graphtest: connect %q.%s -> %q.%s: unknown point", from, fromLabel, to, toLabel)
		return b
	}
	return b.connect(f, fp, t, tp, "")
}

func (b *Builder) connect(f *graph.Node, fp *graph.ConnectionPoint, t *graph.Node, tp *graph.ConnectionPoint, label string) *Builder {
	if _, err := b.g.Connect(f.ID, fp.ID, t.ID, tp.ID, label); err != nil {
		b.err = err
	}
	return b
}

func pointByLabel(points []*graph.ConnectionPoint, label string) *graph.ConnectionPoint {
	for _, p := range points {
		if p.Label == label {
			return p
		}
	}
	return nil
}

// Node returns the node added under name.
func (b *Builder) Node(name string) *graph.Node { return b.byName[name] }

// ID returns the id of the node added under name.
func (b *Builder) ID(name string) string {
	if n := b.byName[name]; n != nil {
		return n.ID
	}
	return ""
}

// Build returns the constructed graph or the first error met while
// building it.
func (b *Builder) Build() (*graph.Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.g, nil
}

// MustBuild returns the constructed graph and fails t on error.
func (b *Builder) MustBuild(t testing.TB) *graph.Graph {
	t.Helper()
	g, err := b.Build()
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	return g
}
