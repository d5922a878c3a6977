package nodes

import (
	"context"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// Filter routes assets to one output point per condition.
type Filter struct{}

func (f Filter) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	cfg, err := configOf[*graph.FilterConfig](req)
	if err != nil {
		return err
	}
	if dup, ok := cfg.Duplicate(); ok {
		return errors.NodeConfig(req.Node.ID, "Duplicated filter condition found for [Keyword:%s Type:%s]", dup.Keyword, dup.KeyType)
	}
	for _, c := range cfg.Conditions {
		if hasGlobMeta(c.Keyword) && !doublestar.ValidatePattern(c.Keyword) {
			return errors.NodeConfig(req.Node.ID, "invalid filter keyword %q", c.Keyword)
		}
	}
	return f.route(req, emit, cfg)
}

func (f Filter) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	cfg, err := configOf[*graph.FilterConfig](req)
	if err != nil {
		return err
	}
	return f.route(req, emit, cfg)
}

func (Filter) route(req *operation.Request, emit operation.Emit, cfg *graph.FilterConfig) error {
	in := req.Merged()
	cached := req.Cached()
	for _, conn := range req.Outputs {
		cond, ok := cfg.ConditionForPoint(conn.FromPointID)
		if !ok {
			continue
		}
		out := make(asset.Group, len(in))
		for _, k := range in.Keys() {
			var kept []asset.Asset
			for _, a := range in[k] {
				if matchCondition(cond, a) != cond.Exclude {
					kept = append(kept, a)
				}
			}
			if kept != nil {
				out[k] = kept
			}
		}
		emit(conn, out, cached)
	}
	return nil
}

func matchCondition(c graph.FilterCondition, a asset.Asset) bool {
	return a.Type().Matches(c.KeyType) && matchKeyword(c.Keyword, a.Path())
}

// matchKeyword matches p against a doublestar pattern when keyword has glob
// metacharacters, and by substring otherwise. Patterns without a separator
// also match against the file name alone.
func matchKeyword(keyword, p string) bool {
	if keyword == "" || keyword == "*" {
		return true
	}
	if !hasGlobMeta(keyword) {
		return strings.Contains(p, keyword)
	}
	if ok, _ := doublestar.Match(keyword, p); ok {
		return true
	}
	if !strings.Contains(keyword, "/") {
		ok, _ := doublestar.Match(keyword, path.Base(p))
		return ok
	}
	return false
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
