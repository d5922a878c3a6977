package nodes

import (
	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// configOf returns the node's configuration as T or a configuration error
// naming the kind the operation expected.
func configOf[T graph.Config](req *operation.Request) (T, error) {
	c, ok := graph.ConfigAs[T](req.Node)
	if !ok {
		var zero T
		return zero, errors.NodeConfig(req.Node.ID, "node carries %T configuration, expected %T", req.Node.Config, zero)
	}
	return c, nil
}

// heterogeneous returns the first asset whose type differs from the type of
// the first asset, if any.
func heterogeneous(assets []asset.Asset) (expected asset.Type, odd asset.Asset, found bool) {
	if len(assets) == 0 {
		return "", asset.Asset{}, false
	}
	expected = assets[0].Type()
	for _, a := range assets[1:] {
		if a.Type() != expected {
			return expected, a, true
		}
	}
	return expected, asset.Asset{}, false
}

// passThrough emits the merged input on every outgoing connection.
func passThrough(req *operation.Request, emit operation.Emit, cached []string) {
	operation.EmitAll(req, emit, req.Merged(), cached)
}

// mapAssets returns a copy of g with fn applied to every asset.
func mapAssets(g asset.Group, fn func(asset.Asset) (asset.Asset, error)) (asset.Group, error) {
	out := make(asset.Group, len(g))
	for _, k := range g.Keys() {
		as := make([]asset.Asset, 0, len(g[k]))
		for _, a := range g[k] {
			m, err := fn(a)
			if err != nil {
				return nil, err
			}
			as = append(as, m)
		}
		out[k] = as
	}
	return out, nil
}
