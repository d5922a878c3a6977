package nodes

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/operation"
	"github.com/kbukum/assetgraph/util"
)

const (
	bundleCacheDir = "BundleBuilder"
	manifestSuffix = ".manifest.json"
)

// BundleManifest describes one built bundle.
type BundleManifest struct {
	Bundle  string          `json:"bundle"`
	Target  string          `json:"target"`
	Options []string        `json:"options"`
	Assets  []ManifestEntry `json:"assets"`
}

// ManifestEntry is one asset recorded in a manifest.
type ManifestEntry struct {
	Path        string     `json:"path"`
	Type        asset.Type `json:"type,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Size        int64      `json:"size,omitempty"`
}

// BuildManifest aggregates the bundles built for one target.
type BuildManifest struct {
	Target  string          `json:"target"`
	Bundles []BundleSummary `json:"bundles"`
}

// BundleSummary references a bundle manifest from the build manifest.
type BundleSummary struct {
	Name        string `json:"name"`
	Manifest    string `json:"manifest"`
	Fingerprint string `json:"fingerprint"`
}

// BundleBuilder writes one JSON manifest per incoming bundle into the cache.
// Manifests whose content did not change are reported as cached keys.
type BundleBuilder struct{}

func (b BundleBuilder) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	opts, err := b.options(req, true)
	if err != nil {
		return err
	}
	dir := b.dir(req)
	out := asset.Group{}
	for _, name := range req.Merged().Keys() {
		out[name] = []asset.Asset{manifestAsset(req, filepath.Join(dir, manifestFile(name)))}
	}
	req.Logger().Debug("bundle builder planned", map[string]interface{}{
		logger.FieldCount: len(out),
		"options":         opts.String(),
	})
	operation.EmitAll(req, emit, out, nil)
	return nil
}

func (b BundleBuilder) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	opts, err := b.options(req, false)
	if err != nil {
		return err
	}
	dir := b.dir(req)
	in := req.Merged()
	out := asset.Group{}
	var cached []string

	for _, name := range in.Keys() {
		data, err := encodeManifest(BundleManifest{
			Bundle:  name,
			Target:  req.Target,
			Options: opts.Names(),
			Assets:  manifestEntries(in[name]),
		})
		if err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to encode manifest of %s", name).WithCause(err)
		}

		path := filepath.Join(dir, manifestFile(name))
		a := manifestAsset(req, path).WithFingerprint(asset.FingerprintBytes(data))
		if !opts.Has(graph.OptionForceRebuild) && sameContent(path, data) {
			cached = append(cached, name)
		} else if !opts.Has(graph.OptionDryRunBuild) {
			if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
				return errors.NodeRuntime(req.Node.ID, "failed to write manifest of %s", name).WithCause(err)
			}
		}
		out[name] = []asset.Asset{a}
	}

	removed := 0
	if !seeded(req) && !opts.Has(graph.OptionDryRunBuild) {
		if removed, err = pruneManifests(dir, in.Keys(), manifestFile(req.Target)); err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to remove stale manifests").WithCause(err)
		}
	}

	req.Logger().Info("bundles built", map[string]interface{}{
		logger.FieldTarget: req.Target,
		logger.FieldCount:  len(out),
		"cached":           len(cached),
		"removed":          removed,
	})
	operation.EmitAll(req, emit, out, cached)
	return nil
}

// Postprocess writes the build manifest listing the bundles of the Run
// pass. A seeded pass only saw part of the graph, so the bundles already in
// the cache are kept as well.
func (b BundleBuilder) Postprocess(ctx context.Context, req *operation.Request, actualRun bool) error {
	if !actualRun {
		return nil
	}
	opts, err := b.options(req, false)
	if err != nil {
		return err
	}
	if opts.Has(graph.OptionDryRunBuild) {
		return nil
	}

	dir := b.dir(req)
	aggregate := manifestFile(req.Target)
	files := util.Map(req.Merged().Keys(), manifestFile)
	if seeded(req) {
		existing, err := listManifests(dir, aggregate)
		if err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to list %s", dir).WithCause(err)
		}
		files = append(files, existing...)
	}
	files = util.Unique(files)
	slices.Sort(files)

	build := BuildManifest{Target: req.Target, Bundles: []BundleSummary{}}
	for _, name := range files {
		fp, err := asset.FingerprintFile(filepath.Join(dir, name))
		if err != nil {
			return errors.NodeRuntime(req.Node.ID, "failed to read %s", name).WithCause(err)
		}
		build.Bundles = append(build.Bundles, BundleSummary{
			Name:        strings.TrimSuffix(name, manifestSuffix),
			Manifest:    name,
			Fingerprint: fp,
		})
	}

	data, err := json.MarshalIndent(build, "", "  ")
	if err != nil {
		return errors.NodeRuntime(req.Node.ID, "failed to encode build manifest").WithCause(err)
	}
	if err := util.WriteFileAtomic(filepath.Join(dir, aggregate), data, 0o644); err != nil {
		return errors.NodeRuntime(req.Node.ID, "failed to write build manifest").WithCause(err)
	}
	return nil
}

// options returns the flags for the request target. Conflicting type tree
// flags are cleared on the node with a warning during Setup.
func (BundleBuilder) options(req *operation.Request, repair bool) (graph.BundleOptions, error) {
	cfg, err := configOf[*graph.BundleBuilderConfig](req)
	if err != nil {
		return 0, err
	}
	opts := cfg.Options.Get(req.Target)
	if opts.Conflicting() {
		opts = opts.Repaired()
		if repair {
			cfg.Options = cfg.Options.Set(req.Target, opts)
			req.Logger().Warn(req.Node.Name + ": DisableWriteTypeTree and IgnoreTypeTreeChanges can not be used together. Settings overwritten.")
		}
	}
	return opts, nil
}

func (BundleBuilder) dir(req *operation.Request) string {
	return req.Env.CachePath(bundleCacheDir, req.Node.ID, req.Target)
}

// seeded reports whether the pass only processed seeded files.
func seeded(req *operation.Request) bool {
	return len(req.Env.Seeds) > 0
}

// listManifests returns the bundle manifest file names in dir, skipping the
// build manifest.
func listManifests(dir, aggregate string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == aggregate || !strings.HasSuffix(e.Name(), manifestSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// pruneManifests deletes the manifests of bundles not in keep and returns
// how many it removed.
func pruneManifests(dir string, keep []string, aggregate string) (int, error) {
	names, err := listManifests(dir, aggregate)
	if err != nil {
		return 0, err
	}
	kept := util.Map(keep, manifestFile)
	removed := 0
	for _, name := range names {
		if slices.Contains(kept, name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func manifestFile(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name) + manifestSuffix
}

func manifestAsset(req *operation.Request, path string) asset.Asset {
	return asset.New(req.Env.ProjectRoot, path).WithType(asset.TypeManifest)
}

func manifestEntries(assets []asset.Asset) []ManifestEntry {
	return util.Map(assets, func(a asset.Asset) ManifestEntry {
		return ManifestEntry{Path: a.Path(), Type: a.Type(), Fingerprint: a.Fingerprint(), Size: a.Size()}
	})
}

func encodeManifest(m BundleManifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func sameContent(path string, data []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, data)
}
