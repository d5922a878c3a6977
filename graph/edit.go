package graph

import (
	"fmt"
	"slices"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/util"
)

func wrongKind(n *Node, want Kind) error {
	return fmt.Errorf("%s: tried to access %s settings on a %s node", n.Name, want, n.Kind())
}

// AddFilterCondition appends a condition to a Filter and gives it an output
// point labelled with the keyword. An empty key type means any type.
func (n *Node) AddFilterCondition(name, keyword string, keyType asset.Type, exclude bool) (FilterCondition, error) {
	fc, ok := ConfigAs[*FilterConfig](n)
	if !ok {
		return FilterCondition{}, wrongKind(n, KindFilter)
	}
	if keyType == "" {
		keyType = DefaultFilterKeyType
	}
	p := n.AddOutputPoint(keyword)
	cond := FilterCondition{
		Name:    name,
		Keyword: keyword,
		KeyType: keyType,
		Exclude: exclude,
		PointID: p.ID,
	}
	fc.Conditions = append(fc.Conditions, cond)
	return cond, nil
}

// RemoveFilterCondition removes the condition bound to pointID and its
// output point. Connections from that point dangle until Graph.Validate.
func (n *Node) RemoveFilterCondition(pointID string) error {
	fc, ok := ConfigAs[*FilterConfig](n)
	if !ok {
		return wrongKind(n, KindFilter)
	}
	before := len(fc.Conditions)
	fc.Conditions = slices.DeleteFunc(fc.Conditions, func(f FilterCondition) bool { return f.PointID == pointID })
	if len(fc.Conditions) == before {
		return fmt.Errorf("%s: no filter condition on point %s", n.Name, pointID)
	}
	n.Outputs = removePoint(n.Outputs, pointID)
	return nil
}

// AddVariant appends a variant to a BundleConfig with its own input point.
func (n *Node) AddVariant(name string) (Variant, error) {
	bc, ok := ConfigAs[*BundleConfigSettings](n)
	if !ok {
		return Variant{}, wrongKind(n, KindBundleConfig)
	}
	p := n.AddInputPoint(name)
	v := Variant{Name: name, PointID: p.ID}
	bc.Variants = append(bc.Variants, v)
	return v, nil
}

// RemoveVariant removes the variant bound to pointID and its input point.
func (n *Node) RemoveVariant(pointID string) error {
	bc, ok := ConfigAs[*BundleConfigSettings](n)
	if !ok {
		return wrongKind(n, KindBundleConfig)
	}
	before := len(bc.Variants)
	bc.Variants = slices.DeleteFunc(bc.Variants, func(v Variant) bool { return v.PointID == pointID })
	if len(bc.Variants) == before {
		return fmt.Errorf("%s: no variant on point %s", n.Name, pointID)
	}
	n.Inputs = removePoint(n.Inputs, pointID)
	return nil
}

// Duplicate returns a copy of n with fresh node and point ids. Filter
// conditions and variants are rebuilt so they point at the new points.
func (n *Node) Duplicate() *Node {
	dup := NewNode(n.Name, n.Kind(), n.X, n.Y)
	switch c := n.Config.(type) {
	case *FilterConfig:
		for _, f := range c.Conditions {
			_, _ = dup.AddFilterCondition(f.Name, f.Keyword, f.KeyType, f.Exclude)
		}
	case *BundleConfigSettings:
		cp := c.clone().(*BundleConfigSettings)
		cp.Variants = nil
		dup.Config = cp
		for _, v := range c.Variants {
			_, _ = dup.AddVariant(v.Name)
		}
	case *WarpInConfig, *WarpOutConfig:
		// A copied warp end has no partner.
	default:
		if c != nil {
			dup.Config = c.clone()
		}
	}
	return dup
}

// NewWarpPair adds a WarpIn and a WarpOut joined by a hidden connection.
// Assets entering the WarpIn leave the WarpOut unchanged.
func (g *Graph) NewWarpPair(name string, x, y float64) (in, out *Node, conn *Connection, err error) {
	in = NewNode(name, KindWarpIn, x, y)
	out = NewNode(name, KindWarpOut, x+200, y)
	in.Config.(*WarpInConfig).RelatedNodeID = out.ID
	out.Config.(*WarpOutConfig).RelatedNodeID = in.ID

	if err = g.AddNode(in); err != nil {
		return nil, nil, nil, err
	}
	if err = g.AddNode(out); err != nil {
		g.RemoveNode(in.ID)
		return nil, nil, nil, err
	}
	conn = &Connection{
		ID:          util.NewID(),
		Label:       DefaultOutputLabel,
		FromNodeID:  in.ID,
		FromPointID: in.Outputs[0].ID,
		ToNodeID:    out.ID,
		ToPointID:   out.Inputs[0].ID,
	}
	g.Connections = append(g.Connections, conn)
	return in, out, conn, nil
}
