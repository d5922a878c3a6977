package importer

import (
	"context"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/controller"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
)

// Reasons an import is skipped.
const (
	SkipIgnored       = "ignored file type"
	SkipNoLoader      = "no loader owns the file"
	SkipNotPreprocess = "loader is not a preprocess loader"
	SkipUnknownLoader = "loader is not in the graph"
)

// Source provides the graph and the loader registry to import against.
type Source interface {
	LoadGraph(ctx context.Context) (*graph.Graph, graph.Report, error)
	LoadLoaders(ctx context.Context) (*graph.LoaderIndex, error)
}

// Report describes the import of the files owned by one Loader.
type Report struct {
	LoaderID string              `json:"loader_id,omitempty"`
	Paths    []string            `json:"paths"`
	Skipped  string              `json:"skipped,omitempty"`
	Errors   []*errors.NodeError `json:"errors,omitempty"`
	State    controller.State    `json:"state,omitempty"`

	// Processed counts the nodes visited by the import run.
	Processed int `json:"processed"`
}

// OK reports whether the import ran without node errors.
func (r *Report) OK() bool { return r.Skipped == "" && len(r.Errors) == 0 }

// Importer performs imports against a controller.
type Importer struct {
	source Source
	ctrl   *controller.Controller
	target string
	log    *logger.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithTarget sets the build target imports run for.
func WithTarget(target string) Option {
	return func(i *Importer) { i.target = target }
}

// WithLogger sets the importer logger.
func WithLogger(l *logger.Logger) Option {
	return func(i *Importer) { i.log = l }
}

// New creates an Importer reading the graph from source.
func New(source Source, ctrl *controller.Controller, opts ...Option) *Importer {
	i := &Importer{
		source: source,
		ctrl:   ctrl,
		target: graph.DefaultTarget,
		log:    logger.Get(logger.ComponentImporter),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import imports a single file.
func (i *Importer) Import(ctx context.Context, path string) (*Report, error) {
	reports, err := i.ImportBatch(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return reports[0], nil
}

// ImportBatch imports paths. Files are grouped by the Loader that owns them
// and every group is performed once, in order of first appearance. Repeated
// files are imported once. Files
// nobody imports get a skipped report of their own.
func (i *Importer) ImportBatch(ctx context.Context, paths []string) ([]*Report, error) {
	if len(paths) == 0 {
		return nil, errors.InvalidInput("paths", "no paths to import")
	}
	g, _, err := i.source.LoadGraph(ctx)
	if err != nil {
		return nil, err
	}
	loaders, err := i.source.LoadLoaders(ctx)
	if err != nil {
		return nil, err
	}

	var (
		reports []*Report
		groups  = map[string]*Report{}
		order   []*Report
	)
	for _, p := range paths {
		abs := i.ctrl.Env().Abs(p)
		rel := i.relative(abs)
		if asset.IsIgnored(abs) {
			reports = append(reports, &Report{Paths: []string{rel}, Skipped: SkipIgnored})
			continue
		}
		entry, ok := loaders.Best(rel, i.target)
		if !ok {
			reports = append(reports, &Report{Paths: []string{rel}, Skipped: SkipNoLoader})
			continue
		}
		r, seen := groups[entry.ID]
		if !seen {
			r = &Report{LoaderID: entry.ID}
			switch {
			case !entry.PreProcess:
				r.Skipped = SkipNotPreprocess
			case g.FindNode(entry.ID) == nil:
				r.Skipped = SkipUnknownLoader
			}
			groups[entry.ID] = r
			order = append(order, r)
		}
		if !slices.Contains(r.Paths, rel) {
			r.Paths = append(r.Paths, rel)
		}
	}

	for _, r := range order {
		if r.Skipped == "" {
			if err := i.run(ctx, g, r); err != nil {
				return append(reports, order...), err
			}
		}
		i.log.Info("import finished", map[string]interface{}{
			logger.FieldLoaderID: r.LoaderID,
			logger.FieldCount:    len(r.Paths),
			"processed":          r.Processed,
			"skipped":            r.Skipped,
			"errors":             len(r.Errors),
		})
	}
	return append(reports, order...), nil
}

// run performs the subgraph of r's Loader seeded with r's files.
func (i *Importer) run(ctx context.Context, g *graph.Graph, r *Report) error {
	sub := g.SubGraph(r.LoaderID)
	seeds := map[string][]string{r.LoaderID: i.absolute(r.Paths)}
	log := i.log.WithFields(map[string]interface{}{logger.FieldLoaderID: r.LoaderID})

	opts := controller.Options{
		Target:     i.target,
		Seeds:      seeds,
		OnProgress: progressLogger(log),
	}
	out, err := i.ctrl.Perform(ctx, sub, opts)
	if err != nil {
		return err
	}
	r.State = out.State
	if !out.OK() {
		r.Errors = out.Errors
		r.Processed = out.Visited()
		return nil
	}

	opts.ActualRun = true
	out, err = i.ctrl.Perform(ctx, sub, opts)
	if err != nil {
		return err
	}
	r.State = out.State
	r.Processed = out.Visited()
	if !out.OK() {
		r.Errors = out.Errors
		return nil
	}

	errs, err := i.ctrl.Postprocess(ctx, out, true)
	if err != nil {
		return err
	}
	r.Errors = errs
	return nil
}

// progressLogger logs whole percentages of a pass at debug level.
func progressLogger(log *logger.Logger) func(*graph.Node, float64) {
	var (
		done float64
		last = -1
	)
	return func(n *graph.Node, delta float64) {
		done += delta
		if done > 1 {
			done = 1
		}
		pct := int(math.Round(done * 100))
		if pct == last {
			return
		}
		last = pct
		log.Debug("import progress", map[string]interface{}{
			logger.FieldNodeName: n.Name,
			"percent":            pct,
		})
		if pct == 100 {
			done, last = 0, -1
		}
	}
}

// relative returns abs relative to the project root in slash form, or abs
// itself when it lies outside the root.
func (i *Importer) relative(abs string) string {
	root := i.ctrl.Env().ProjectRoot
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (i *Importer) absolute(paths []string) []string {
	out := make([]string, len(paths))
	for k, p := range paths {
		out[k] = i.ctrl.Env().Abs(p)
	}
	return out
}
