package store

import (
	"fmt"
	"time"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/graph"
)

// ToRecord converts g to its persisted form.
func ToRecord(g *graph.Graph) GraphRecord {
	r := GraphRecord{
		LastModified: g.LastModified.UTC().Format(time.RFC3339),
		Nodes:        make([]NodeRecord, 0, len(g.Nodes)),
		Connections:  make([]ConnectionRecord, 0, len(g.Connections)),
	}
	for _, n := range g.Nodes {
		r.Nodes = append(r.Nodes, nodeRecord(n))
	}
	for _, c := range g.Connections {
		r.Connections = append(r.Connections, ConnectionRecord{
			ID:                      c.ID,
			Label:                   c.Label,
			FromNode:                c.FromNodeID,
			FromNodeConnectionPoint: c.FromPointID,
			ToNode:                  c.ToNodeID,
			ToNodeConnectionPoint:   c.ToPointID,
		})
	}
	return r
}

func nodeRecord(n *graph.Node) NodeRecord {
	r := NodeRecord{
		Name:         n.Name,
		ID:           n.ID,
		Kind:         string(n.Kind()),
		Pos:          Position{X: n.X, Y: n.Y},
		InputPoints:  pointRecords(n.Inputs),
		OutputPoints: pointRecords(n.Outputs),
	}

	switch c := n.Config.(type) {
	case *graph.LoaderConfig:
		r.LoadPath = perTargetRecord(c.LoadPath)
		r.PreProcess = c.PreProcess
		r.Permanent = c.Permanent
	case *graph.FilterConfig:
		r.Filter = make([]FilterRecord, 0, len(c.Conditions))
		for _, f := range c.Conditions {
			r.Filter = append(r.Filter, FilterRecord{
				Name:     f.Name,
				Keyword:  f.Keyword,
				KeyType:  string(f.KeyType),
				Excludes: f.Exclude,
				PointID:  f.PointID,
			})
		}
	case *graph.GroupingConfig:
		r.GroupingKeyword = perTargetRecord(c.Keyword)
	case *graph.BundleConfigSettings:
		r.BundleNameTemplate = perTargetRecord(c.NameTemplate)
		r.UseGroupAsVariants = c.UseGroupAsVariants
		r.SetBundleNameAndVariant = c.SetBundleNameAndVariant
		for _, v := range c.Variants {
			r.Variants = append(r.Variants, VariantRecord{Name: v.Name, PointID: v.PointID})
		}
	case *graph.BundleBuilderConfig:
		r.EnabledBundleOptions = intRecord(c.Options)
	case *graph.ExporterConfig:
		r.ExportTo = perTargetRecord(c.ExportPath)
		r.ExportOption = intRecord(c.Option)
	case graph.Scripted:
		s := c.Script()
		r.ScriptClassName = s.ClassName
		r.ScriptInstanceData = perTargetRecord(s.InstanceData)
	case *graph.WarpInConfig:
		r.RelatedNode = c.RelatedNodeID
	case *graph.WarpOutConfig:
		r.RelatedNode = c.RelatedNodeID
	}
	return r
}

func pointRecords(points []*graph.ConnectionPoint) []PointRecord {
	out := make([]PointRecord, 0, len(points))
	for _, p := range points {
		out = append(out, PointRecord{
			ID:            p.ID,
			Label:         p.Label,
			Direction:     string(p.Direction),
			OrderPriority: p.Order,
			ShowLabel:     p.ShowLabel,
			Hidden:        p.Hidden,
		})
	}
	return out
}

func perTargetRecord(p graph.PerTarget[string]) map[string]string {
	if len(p) == 0 {
		return nil
	}
	return map[string]string(p.Clone())
}

func intRecord[T ~int](p graph.PerTarget[T]) map[string]int {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]int, len(p))
	for k, v := range p {
		out[k] = int(v)
	}
	return out
}

// FromRecord converts a persisted graph. It does not heal the result; call
// graph.Validate for that. An unparsable lastModified becomes the current
// time.
func FromRecord(r GraphRecord) (*graph.Graph, error) {
	g := graph.New()
	if t, err := time.Parse(time.RFC3339, r.LastModified); err == nil {
		g.LastModified = t.UTC()
	}
	for i, nr := range r.Nodes {
		n, err := nodeFromRecord(nr)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, cr := range r.Connections {
		g.Connections = append(g.Connections, &graph.Connection{
			ID:          cr.ID,
			Label:       cr.Label,
			FromNodeID:  cr.FromNode,
			FromPointID: cr.FromNodeConnectionPoint,
			ToNodeID:    cr.ToNode,
			ToPointID:   cr.ToNodeConnectionPoint,
		})
	}
	return g, nil
}

func nodeFromRecord(r NodeRecord) (*graph.Node, error) {
	kind, err := graph.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	n := &graph.Node{
		ID:     r.ID,
		Name:   r.Name,
		X:      r.Pos.X,
		Y:      r.Pos.Y,
		Config: graph.NewConfig(kind),
	}
	n.Inputs = pointsFromRecords(n.ID, graph.Input, r.InputPoints)
	n.Outputs = pointsFromRecords(n.ID, graph.Output, r.OutputPoints)

	switch c := n.Config.(type) {
	case *graph.LoaderConfig:
		c.LoadPath = perTarget(r.LoadPath, c.LoadPath)
		c.PreProcess = r.PreProcess
		c.Permanent = r.Permanent
	case *graph.FilterConfig:
		for _, f := range r.Filter {
			c.Conditions = append(c.Conditions, graph.FilterCondition{
				Name:    f.Name,
				Keyword: f.Keyword,
				KeyType: asset.ParseType(f.KeyType),
				Exclude: f.Excludes,
				PointID: f.PointID,
			})
		}
	case *graph.GroupingConfig:
		c.Keyword = perTarget(r.GroupingKeyword, c.Keyword)
	case *graph.BundleConfigSettings:
		c.NameTemplate = perTarget(r.BundleNameTemplate, c.NameTemplate)
		c.UseGroupAsVariants = r.UseGroupAsVariants
		c.SetBundleNameAndVariant = r.SetBundleNameAndVariant
		for _, v := range r.Variants {
			c.Variants = append(c.Variants, graph.Variant{Name: v.Name, PointID: v.PointID})
		}
	case *graph.BundleBuilderConfig:
		c.Options = intPerTarget[graph.BundleOptions](r.EnabledBundleOptions)
	case *graph.ExporterConfig:
		c.ExportPath = perTarget(r.ExportTo, c.ExportPath)
		c.Option = intPerTarget[graph.ExportOption](r.ExportOption)
	case graph.Scripted:
		s := c.Script()
		s.ClassName = r.ScriptClassName
		s.InstanceData = perTarget(r.ScriptInstanceData, s.InstanceData)
	case *graph.WarpInConfig:
		c.RelatedNodeID = r.RelatedNode
	case *graph.WarpOutConfig:
		c.RelatedNodeID = r.RelatedNode
	}
	return n, nil
}

func pointsFromRecords(nodeID string, dir graph.Direction, records []PointRecord) []*graph.ConnectionPoint {
	out := make([]*graph.ConnectionPoint, 0, len(records))
	for _, p := range records {
		out = append(out, &graph.ConnectionPoint{
			ID:        p.ID,
			NodeID:    nodeID,
			Label:     p.Label,
			Direction: dir,
			Order:     p.OrderPriority,
			ShowLabel: p.ShowLabel,
			Hidden:    p.Hidden,
		})
	}
	return out
}

// perTarget returns m as a PerTarget, or fallback when m is empty.
func perTarget(m map[string]string, fallback graph.PerTarget[string]) graph.PerTarget[string] {
	if len(m) == 0 {
		return fallback
	}
	return graph.PerTarget[string](m)
}

func intPerTarget[T ~int](m map[string]int) graph.PerTarget[T] {
	out := make(graph.PerTarget[T], len(m))
	for k, v := range m {
		out[k] = T(v)
	}
	return out
}

// LoadersToRecord converts a loader index to its persisted form.
func LoadersToRecord(idx *graph.LoaderIndex) LoadersRecord {
	r := LoadersRecord{Loaders: make([]LoaderRecord, 0, len(idx.Entries))}
	for _, e := range idx.Entries {
		r.Loaders = append(r.Loaders, LoaderRecord{ID: e.ID, Path: map[string]string(e.Path.Clone()), PreProcess: e.PreProcess})
	}
	return r
}

// LoadersFromRecord converts a persisted loader registry.
func LoadersFromRecord(r LoadersRecord) *graph.LoaderIndex {
	idx := &graph.LoaderIndex{}
	for _, l := range r.Loaders {
		idx.Entries = append(idx.Entries, graph.LoaderEntry{ID: l.ID, Path: graph.PerTarget[string](l.Path), PreProcess: l.PreProcess})
	}
	return idx
}
