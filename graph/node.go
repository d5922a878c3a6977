package graph

import (
	"fmt"
	"slices"

	"github.com/kbukum/assetgraph/util"
)

// Direction tells whether a point receives or sends.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// ConnectionPoint is a named socket on a node.
type ConnectionPoint struct {
	ID        string
	NodeID    string
	Label     string
	Direction Direction
	Order     int
	ShowLabel bool
	Hidden    bool
}

// Node is one step of the pipeline.
type Node struct {
	ID      string
	Name    string
	X, Y    float64
	Inputs  []*ConnectionPoint
	Outputs []*ConnectionPoint
	Config  Config
}

// NewNode creates a node of kind with fresh ids, default points and default
// configuration. Loaders get no input; Filters and Exporters no output.
func NewNode(name string, kind Kind, x, y float64) *Node {
	n := &Node{
		ID:     util.NewID(),
		Name:   name,
		X:      x,
		Y:      y,
		Config: NewConfig(kind),
	}
	if kind.HasDefaultInput() {
		p := n.AddInputPoint(DefaultInputLabel)
		p.Hidden = kind == KindWarpOut
	}
	if kind.HasDefaultOutput() {
		p := n.AddOutputPoint(DefaultOutputLabel)
		p.Hidden = kind == KindWarpIn
	}
	return n
}

// Kind returns the kind of the node's configuration.
func (n *Node) Kind() Kind {
	if n.Config == nil {
		return ""
	}
	return n.Config.Kind()
}

// AddInputPoint appends an input point.
func (n *Node) AddInputPoint(label string) *ConnectionPoint {
	p := n.newPoint(label, Input, len(n.Inputs))
	n.Inputs = append(n.Inputs, p)
	return p
}

// AddOutputPoint appends an output point.
func (n *Node) AddOutputPoint(label string) *ConnectionPoint {
	p := n.newPoint(label, Output, len(n.Outputs))
	n.Outputs = append(n.Outputs, p)
	return p
}

func (n *Node) newPoint(label string, dir Direction, order int) *ConnectionPoint {
	return &ConnectionPoint{
		ID:        util.NewID(),
		NodeID:    n.ID,
		Label:     label,
		Direction: dir,
		Order:     order,
		ShowLabel: true,
	}
}

// FindInputPoint returns the input point with id.
func (n *Node) FindInputPoint(id string) *ConnectionPoint {
	return findPoint(n.Inputs, id)
}

// FindOutputPoint returns the output point with id.
func (n *Node) FindOutputPoint(id string) *ConnectionPoint {
	return findPoint(n.Outputs, id)
}

// FindPoint returns the input or output point with id.
func (n *Node) FindPoint(id string) *ConnectionPoint {
	if p := n.FindInputPoint(id); p != nil {
		return p
	}
	return n.FindOutputPoint(id)
}

func findPoint(points []*ConnectionPoint, id string) *ConnectionPoint {
	for _, p := range points {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func removePoint(points []*ConnectionPoint, id string) []*ConnectionPoint {
	return slices.DeleteFunc(points, func(p *ConnectionPoint) bool { return p.ID == id })
}

// Validate reports whether the node can stay in a graph made of nodes and
// conns. Nodes without an id, with an unknown kind or with configuration of
// the wrong variant fail, as do Loaders with input points and nodes whose
// points repeat an id. A warp node whose partner is gone fails too.
func (n *Node) Validate(nodes []*Node, conns []*Connection) bool {
	if n.check() != nil {
		return false
	}
	if related := n.relatedNodeID(); related != "" && findNode(nodes, related) == nil {
		return false
	}
	return true
}

func (n *Node) relatedNodeID() string {
	switch c := n.Config.(type) {
	case *WarpInConfig:
		return c.RelatedNodeID
	case *WarpOutConfig:
		return c.RelatedNodeID
	}
	return ""
}

func (n *Node) check() error {
	if n.ID == "" {
		return fmt.Errorf("node %q has no id", n.Name)
	}
	if n.Config == nil || !n.Config.Kind().Valid() {
		return fmt.Errorf("node %s has no valid configuration", n.ID)
	}
	if n.Kind() == KindLoader && len(n.Inputs) > 0 {
		return fmt.Errorf("loader %s has input points", n.ID)
	}
	seen := map[string]bool{}
	for _, p := range slices.Concat(n.Inputs, n.Outputs) {
		if p == nil || p.ID == "" || seen[p.ID] {
			return fmt.Errorf("node %s has a missing or duplicate point id", n.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// Repair fixes settings the node cannot honour and returns a warning per fix.
// BundleBuilder targets that enable both DisableWriteTypeTree and
// IgnoreTypeTreeChanges get both flags cleared.
func (n *Node) Repair() []string {
	bb, ok := ConfigAs[*BundleBuilderConfig](n)
	if !ok {
		return nil
	}
	var warnings []string
	for _, target := range bb.Options.Targets() {
		opts := bb.Options[target]
		if !opts.Conflicting() {
			continue
		}
		bb.Options[target] = opts.Repaired()
		warnings = append(warnings, fmt.Sprintf(
			"%s: DisableWriteTypeTree and IgnoreTypeTreeChanges can not be used together. Settings overwritten.", n.Name))
	}
	return warnings
}

// Clone returns a deep copy keeping all ids.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Inputs = clonePoints(n.Inputs)
	cp.Outputs = clonePoints(n.Outputs)
	if n.Config != nil {
		cp.Config = n.Config.clone()
	}
	return &cp
}

func clonePoints(points []*ConnectionPoint) []*ConnectionPoint {
	if points == nil {
		return nil
	}
	out := make([]*ConnectionPoint, len(points))
	for i, p := range points {
		pp := *p
		out[i] = &pp
	}
	return out
}
