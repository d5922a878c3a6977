package graph

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes everything that affects a build: node ids, kinds, points,
// configuration and connections. Names, positions and LastModified are left
// out, so moving a node on the canvas keeps the digest.
func (g *Graph) Digest() string {
	h := xxhash.New()
	for _, n := range g.Nodes {
		fmt.Fprintf(h, "n|%s|%s\n", n.ID, n.Kind())
		writePoints(h, "i", n.Inputs)
		writePoints(h, "o", n.Outputs)
		writeConfig(h, n.Config)
	}
	for _, c := range g.Connections {
		fmt.Fprintf(h, "c|%s|%s|%s|%s|%s|%s\n", c.ID, c.Label, c.FromNodeID, c.FromPointID, c.ToNodeID, c.ToPointID)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func writePoints(w io.Writer, tag string, points []*ConnectionPoint) {
	for _, p := range points {
		fmt.Fprintf(w, "%s|%s|%s|%d|%t\n", tag, p.ID, p.Label, p.Order, p.Hidden)
	}
}

func writeConfig(w io.Writer, c Config) {
	switch c := c.(type) {
	case *LoaderConfig:
		writePerTarget(w, "load", c.LoadPath)
		fmt.Fprintf(w, "pre|%t|%t\n", c.PreProcess, c.Permanent)
	case *FilterConfig:
		for _, f := range c.Conditions {
			fmt.Fprintf(w, "f|%s|%s|%s|%t|%s\n", f.Name, f.Keyword, f.KeyType, f.Exclude, f.PointID)
		}
	case Scripted:
		s := c.Script()
		fmt.Fprintf(w, "script|%s\n", s.ClassName)
		writePerTarget(w, "data", s.InstanceData)
	case *GroupingConfig:
		writePerTarget(w, "group", c.Keyword)
	case *BundleConfigSettings:
		writePerTarget(w, "tmpl", c.NameTemplate)
		fmt.Fprintf(w, "bc|%t|%t\n", c.UseGroupAsVariants, c.SetBundleNameAndVariant)
		for _, v := range c.Variants {
			fmt.Fprintf(w, "v|%s|%s\n", v.Name, v.PointID)
		}
	case *BundleBuilderConfig:
		writePerTarget(w, "opts", c.Options)
	case *ExporterConfig:
		writePerTarget(w, "export", c.ExportPath)
		writePerTarget(w, "option", c.Option)
	case *WarpInConfig:
		fmt.Fprintf(w, "warp|%s\n", c.RelatedNodeID)
	case *WarpOutConfig:
		fmt.Fprintf(w, "warp|%s\n", c.RelatedNodeID)
	}
}

func writePerTarget[T any](w io.Writer, tag string, p PerTarget[T]) {
	for _, t := range p.Targets() {
		fmt.Fprintf(w, "%s|%s|%v\n", tag, t, p[t])
	}
}
