package nodes

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/operation"
)

const (
	prefabBuilderLabel = "PrefabBuilder"
	prefabCacheDir     = "PrefabBuilder"
)

// PrefabBuilder turns each incoming group into one generated artifact in
// the cache. Groups the builder declines are dropped.
type PrefabBuilder struct{}

func (b PrefabBuilder) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	p, err := createPlugin(req, plugins(req).PrefabBuilders, prefabBuilderLabel)
	if err != nil {
		return err
	}
	dir := b.dir(req)
	in := req.Merged()
	out := asset.Group{}
	for _, k := range in.Keys() {
		if name := p.CanCreate(k, in[k]); name != "" {
			out[k] = []asset.Asset{prefabAsset(req, filepath.Join(dir, name))}
		}
	}
	operation.EmitAll(req, emit, out, nil)
	return nil
}

func (b PrefabBuilder) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	p, err := createPlugin(req, plugins(req).PrefabBuilders, prefabBuilderLabel)
	if err != nil {
		return err
	}
	dir := b.dir(req)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NodeRuntime(req.Node.ID, "failed to create %s", dir).WithCause(err)
	}

	in := req.Merged()
	out := asset.Group{}
	var cached []string
	for _, k := range in.Keys() {
		name := p.CanCreate(k, in[k])
		if name == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if req.InputsUnchanged {
			if existing, err := asset.FromFile(req.Env.ProjectRoot, path); err == nil {
				out[k] = []asset.Asset{existing.WithType(asset.TypePrefab)}
				cached = append(cached, k)
				continue
			}
		}
		written, err := p.Create(ctx, name, in[k], dir)
		if err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to create %s", name).WithCause(err)
		}
		a, err := asset.FromFile(req.Env.ProjectRoot, written)
		if err != nil {
			return errors.NodeRuntime(req.Node.ID, "created artifact %s is unreadable", written).WithCause(err)
		}
		out[k] = []asset.Asset{a.WithType(asset.TypePrefab)}
	}
	operation.EmitAll(req, emit, out, cached)
	return nil
}

func (PrefabBuilder) dir(req *operation.Request) string {
	return req.Env.CachePath(prefabCacheDir, req.Node.ID, req.Target)
}

func prefabAsset(req *operation.Request, path string) asset.Asset {
	return asset.New(req.Env.ProjectRoot, path).WithType(asset.TypePrefab)
}
