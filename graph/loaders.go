package graph

import (
	"strings"
)

// LoaderEntry records where a Loader reads from.
type LoaderEntry struct {
	ID         string
	Path       PerTarget[string]
	PreProcess bool
}

// LoaderIndex maps load roots to the Loaders that own them.
type LoaderIndex struct {
	Entries []LoaderEntry
}

// IndexLoaders builds an index of g's Loaders in graph order.
func IndexLoaders(g *Graph) *LoaderIndex {
	idx := &LoaderIndex{}
	for _, n := range g.Loaders() {
		lc, _ := ConfigAs[*LoaderConfig](n)
		idx.Entries = append(idx.Entries, LoaderEntry{
			ID:         n.ID,
			Path:       lc.LoadPath.Clone(),
			PreProcess: lc.PreProcess,
		})
	}
	return idx
}

// Find returns the entry for loader id.
func (x *LoaderIndex) Find(id string) (LoaderEntry, bool) {
	for _, e := range x.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return LoaderEntry{}, false
}

// Best returns the entry owning assetPath for target: among entries whose
// load path occurs in assetPath, the longest. Earlier entries win ties.
// Entries with an empty load path never own anything.
func (x *LoaderIndex) Best(assetPath, target string) (LoaderEntry, bool) {
	var (
		best    LoaderEntry
		bestLen = -1
	)
	for _, e := range x.Entries {
		p := e.Path.Get(target)
		if p == "" || !strings.Contains(assetPath, p) {
			continue
		}
		if len(p) > bestLen {
			best, bestLen = e, len(p)
		}
	}
	return best, bestLen >= 0
}
