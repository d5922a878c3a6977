package operation

import (
	"path/filepath"

	"github.com/kbukum/assetgraph/graph"
)

// Env is the project context shared by every operation of a Perform call.
type Env struct {
	// ProjectRoot is the absolute directory asset paths are relative to.
	ProjectRoot string
	// SettingsDir is where graph documents live; loaders never read it.
	SettingsDir string
	// CacheDir receives generated artifacts.
	CacheDir string
	// ExportRoot prefixes relative Exporter paths when set.
	ExportRoot string
	// Loaders resolves which Loader owns a file.
	Loaders *graph.LoaderIndex
	// Seeds maps a Loader id to the absolute files it emits instead of
	// scanning its directory.
	Seeds   map[string][]string
	Plugins *Plugins
}

// Abs resolves p against ProjectRoot unless it is already absolute.
func (e *Env) Abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(e.ProjectRoot, filepath.FromSlash(p))
}

// CachePath returns a path under CacheDir.
func (e *Env) CachePath(elem ...string) string {
	return filepath.Join(append([]string{e.CacheDir}, elem...)...)
}

// WithSeeds returns a copy of e with seeds replacing Seeds.
func (e *Env) WithSeeds(seeds map[string][]string) *Env {
	cp := *e
	cp.Seeds = seeds
	return &cp
}

// Seed returns the seeded files of loader id.
func (e *Env) Seed(id string) ([]string, bool) {
	if e.Seeds == nil {
		return nil, false
	}
	files, ok := e.Seeds[id]
	return files, ok
}
