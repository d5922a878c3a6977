package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/nodes"
)

// DefaultQuietPeriod is how long the watcher waits for a burst of changes
// to settle before importing.
const DefaultQuietPeriod = 500 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	QuietPeriod time.Duration
	// Ignore lists file extensions, with the leading dot, never imported.
	Ignore []string
	// OnBatch receives the outcome of every imported batch.
	OnBatch func(paths []string, reports []*Report, err error)
}

// Watcher imports files as they are created or written below the project
// root. Hidden entries, the settings and cache directories and the
// directories Exporters write to are skipped.
type Watcher struct {
	importer *Importer
	opts     WatchOptions
	root     string
	skipDirs []string
	log      *logger.Logger
}

// NewWatcher creates a Watcher feeding imp.
func NewWatcher(imp *Importer, opts WatchOptions) *Watcher {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	env := imp.ctrl.Env()
	w := &Watcher{
		importer: imp,
		opts:     opts,
		root:     env.Abs("."),
		log:      imp.log.WithComponent("watcher"),
	}
	for _, d := range []string{env.SettingsDir, env.CacheDir} {
		if d != "" {
			w.skipDirs = append(w.skipDirs, env.Abs(d))
		}
	}
	return w
}

// Run watches until ctx ends. Batches still pending at that point are
// dropped.
func (w *Watcher) Run(ctx context.Context) error {
	g, _, err := w.importer.source.LoadGraph(ctx)
	if err != nil {
		return err
	}
	w.skipExports(g)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Internal(err)
	}
	defer fw.Close()

	if _, err := w.addTree(fw, w.root); err != nil {
		return errors.Internal(err).WithDetail("path", w.root)
	}
	w.log.Info("watching project", map[string]interface{}{logger.FieldPath: w.root})

	paths := make(chan string)
	batches := make(chan []string)
	go collect(ctx, paths, w.opts.QuietPeriod, batches)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for batch := range batches {
			reports, err := w.importer.ImportBatch(ctx, batch)
			if err != nil {
				w.log.Error("import failed", logger.MergeWithError(logger.Fields(logger.FieldCount, len(batch)), err))
			}
			if w.opts.OnBatch != nil {
				w.opts.OnBatch(batch, reports, err)
			}
		}
	}()
	defer func() {
		close(paths)
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			for _, p := range w.changed(fw, ev) {
				select {
				case paths <- p:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", logger.ErrorFields("watch", err))
		}
	}
}

// skipExports adds the export directories of g's Exporters to the skipped
// directories, so exported files never trigger an import.
func (w *Watcher) skipExports(g *graph.Graph) {
	env := w.importer.ctrl.Env()
	for _, n := range g.CollectAllNodes(func(n *graph.Node) bool { return n.Kind() == graph.KindExporter }) {
		ec, _ := graph.ConfigAs[*graph.ExporterConfig](n)
		if p := ec.ExportPath.Get(w.importer.target); p != "" {
			w.skipDirs = append(w.skipDirs, nodes.ExportDir(env, p))
		}
	}
}

// changed returns the importable files ev touched. A new directory is
// watched and its files are returned.
func (w *Watcher) changed(fw *fsnotify.Watcher, ev fsnotify.Event) []string {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return nil
	}
	if w.skipped(ev.Name) {
		return nil
	}
	if ev.Has(fsnotify.Create) && isDir(ev.Name) {
		files, err := w.addTree(fw, ev.Name)
		if err != nil {
			w.log.Warn("failed to watch directory", map[string]interface{}{
				logger.FieldPath:  ev.Name,
				logger.FieldError: err.Error(),
			})
		}
		return files
	}
	if !w.importable(ev.Name) {
		return nil
	}
	return []string{ev.Name}
}

// addTree watches dir and its subdirectories and returns the importable
// files found in them.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && w.skipped(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		if w.importable(p) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// skipped reports whether p is hidden or lies in a skipped directory.
func (w *Watcher) skipped(p string) bool {
	if strings.HasPrefix(filepath.Base(p), ".") {
		return true
	}
	for _, d := range w.skipDirs {
		if p == d || within(d, p) {
			return true
		}
	}
	return false
}

func (w *Watcher) importable(p string) bool {
	if asset.IsIgnored(p) {
		return false
	}
	return !slices.Contains(w.opts.Ignore, filepath.Ext(p))
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
