package nodes

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/operation"
)

// Loader emits the files under its load path. Setup describes the files
// without reading them; Run fingerprints their content.
type Loader struct{}

func (Loader) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	cfg, err := configOf[*graph.LoaderConfig](req)
	if err != nil {
		return err
	}
	if p := cfg.LoadPath.Get(req.Target); p != "" {
		dir := req.Env.Abs(p)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return errors.NodeConfig(req.Node.ID, "Directory not found: %s", dir)
		}
	}
	return load(req, emit, cfg, false)
}

func (Loader) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	cfg, err := configOf[*graph.LoaderConfig](req)
	if err != nil {
		return err
	}
	return load(req, emit, cfg, true)
}

func load(req *operation.Request, emit operation.Emit, cfg *graph.LoaderConfig, fingerprint bool) error {
	files, err := loaderFiles(req, cfg)
	if err != nil {
		return err
	}

	assets := make([]asset.Asset, 0, len(files))
	for _, f := range files {
		a := asset.New(req.Env.ProjectRoot, f)
		if !owns(req, a) {
			continue
		}
		if fingerprint {
			refreshed, err := a.Refresh()
			if err != nil {
				return errors.NodeRuntime(req.Node.ID, "failed to read %s", a.Path()).WithCause(err)
			}
			a = refreshed
		}
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path() < assets[j].Path() })

	req.Logger().Debug("loader collected assets", map[string]interface{}{
		logger.FieldLoaderID: req.Node.ID,
		logger.FieldCount:    len(assets),
	})
	operation.EmitAll(req, emit, asset.Single(assets...), nil)
	return nil
}

// loaderFiles returns the absolute candidate files: the seeded ones when the
// request seeds this loader, otherwise every file under the load path.
func loaderFiles(req *operation.Request, cfg *graph.LoaderConfig) ([]string, error) {
	if seeded, ok := req.Env.Seed(req.Node.ID); ok {
		files := make([]string, 0, len(seeded))
		for _, f := range seeded {
			files = append(files, req.Env.Abs(f))
		}
		return files, nil
	}

	p := cfg.LoadPath.Get(req.Target)
	if p == "" {
		return nil, nil
	}
	dir := req.Env.Abs(p)
	matches, err := doublestar.Glob(os.DirFS(dir), "**", doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, errors.NodeRuntime(req.Node.ID, "failed to scan %s", dir).WithCause(err)
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return files, nil
}

// owns reports whether a belongs in this loader's output. Ignored files,
// files of the settings directory and files owned by a nested loader are
// left out.
func owns(req *operation.Request, a asset.Asset) bool {
	if asset.IsIgnored(a.AbsPath()) {
		return false
	}
	if req.Env.SettingsDir != "" && within(req.Env.Abs(req.Env.SettingsDir), a.AbsPath()) {
		return false
	}
	if req.Env.Loaders != nil {
		if best, ok := req.Env.Loaders.Best(a.Path(), req.Target); ok && best.ID != req.Node.ID {
			return false
		}
	}
	return true
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
