package store

import (
	"fmt"

	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/validation"
)

// checker is implemented by records with rules that span fields.
// Duplicate node and connection ids are left to graph.Validate.
type checker interface {
	check() *validation.Validator
}

func (r GraphRecord) check() *validation.Validator {
	v := validation.New()
	for i, n := range r.Nodes {
		v.Merge(fmt.Sprintf("nodes[%d].", i), n.check())
	}
	return v
}

func (r NodeRecord) check() *validation.Validator {
	v := validation.New()
	inputs := make(map[string]bool, len(r.InputPoints))
	outputs := make(map[string]bool, len(r.OutputPoints))
	for i, p := range r.InputPoints {
		field := fmt.Sprintf("inputPoints[%d]", i)
		v.OneOf(field+".direction", p.Direction, []string{string(graph.Input)})
		v.Unique(field+".id", p.ID, inputs)
	}
	for i, p := range r.OutputPoints {
		field := fmt.Sprintf("outputPoints[%d]", i)
		v.OneOf(field+".direction", p.Direction, []string{string(graph.Output)})
		v.Unique(field+".id", p.ID, outputs)
	}

	used := make(map[string]bool, len(r.Filter))
	for i, f := range r.Filter {
		field := fmt.Sprintf("filter[%d].pointId", i)
		v.Custom(outputs[f.PointID], field, fmt.Sprintf("no output point %q", f.PointID))
		v.Unique(field, f.PointID, used)
	}

	names := make(map[string]bool, len(r.Variants))
	for i, vr := range r.Variants {
		field := fmt.Sprintf("variants[%d]", i)
		v.Custom(inputs[vr.PointID], field+".pointId", fmt.Sprintf("no input point %q", vr.PointID))
		v.Unique(field+".name", vr.Name, names)
	}

	for target, o := range r.EnabledBundleOptions {
		v.Range("enabledBundleOptions."+target, o, 0, int(graph.AllBundleOptions))
	}
	for target, o := range r.ExportOption {
		v.Range("exportOption."+target, o, int(graph.ExportErrorIfMissing), int(graph.ExportDeleteAndRecreate))
	}
	return v
}

func (r LoadersRecord) check() *validation.Validator {
	v := validation.New()
	seen := make(map[string]bool, len(r.Loaders))
	for i, l := range r.Loaders {
		field := fmt.Sprintf("loaders[%d].id", i)
		v.Required(field, l.ID).Unique(field, l.ID, seen)
	}
	return v
}
