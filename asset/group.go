package asset

import (
	"slices"

	"github.com/kbukum/assetgraph/util"
)

// DefaultKey is the bucket assets live in before they are grouped.
const DefaultKey = "0"

// Group maps a group key to an ordered list of assets.
type Group map[string][]Asset

// Single returns a group holding assets under DefaultKey.
func Single(assets ...Asset) Group {
	return Group{DefaultKey: assets}
}

// Keys returns the group keys in ascending order.
func (g Group) Keys() []string {
	return util.SortedKeys(g)
}

// Len returns the total number of assets across all keys.
func (g Group) Len() int {
	n := 0
	for _, as := range g {
		n += len(as)
	}
	return n
}

// Flatten returns every asset, ordered by key and then by position.
func (g Group) Flatten() []Asset {
	out := make([]Asset, 0, g.Len())
	for _, k := range g.Keys() {
		out = append(out, g[k]...)
	}
	return out
}

// Clone returns a copy whose slices can be modified independently.
func (g Group) Clone() Group {
	if g == nil {
		return nil
	}
	out := make(Group, len(g))
	for k, as := range g {
		out[k] = slices.Clone(as)
	}
	return out
}

// Merge returns a new group with the assets of every group. Within a key,
// later assets with an already present path are dropped.
func Merge(groups ...Group) Group {
	out := Group{}
	seen := map[string]map[string]bool{}
	for _, g := range groups {
		for _, k := range g.Keys() {
			if seen[k] == nil {
				seen[k] = map[string]bool{}
			}
			if _, ok := out[k]; !ok {
				out[k] = []Asset{}
			}
			for _, a := range g[k] {
				if seen[k][a.absPath] {
					continue
				}
				seen[k][a.absPath] = true
				out[k] = append(out[k], a)
			}
		}
	}
	return out
}

// Types returns the distinct asset types in the group, sorted.
func (g Group) Types() []Type {
	set := map[Type]bool{}
	for _, as := range g {
		for _, a := range as {
			if a.typ != "" {
				set[a.typ] = true
			}
		}
	}
	return util.SortedKeys(set)
}

// Paths returns the logical paths of the group's assets per key.
func (g Group) Paths() map[string][]string {
	out := make(map[string][]string, len(g))
	for k, as := range g {
		out[k] = util.Map(as, Asset.Path)
	}
	return out
}
