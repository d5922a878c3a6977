package nodes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// Grouping buckets assets by the text matched by the "*" of its keyword.
type Grouping struct{}

func (g Grouping) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	return g.group(req, emit)
}

func (g Grouping) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	return g.group(req, emit)
}

func (Grouping) group(req *operation.Request, emit operation.Emit) error {
	cfg, err := configOf[*graph.GroupingConfig](req)
	if err != nil {
		return err
	}
	keyword := cfg.Keyword.Get(req.Target)
	re, err := groupingPattern(keyword)
	if err != nil {
		return errors.NodeConfig(req.Node.ID, "%s", err)
	}

	out := asset.Group{}
	for _, a := range req.Merged().Flatten() {
		m := re.FindStringSubmatch(a.Path())
		if m == nil {
			continue
		}
		out[m[1]] = append(out[m[1]], a)
	}
	operation.EmitAll(req, emit, out, req.Cached())
	return nil
}

// groupingPattern turns keyword into a regexp whose only capture group
// stands in for the single "*".
func groupingPattern(keyword string) (*regexp.Regexp, error) {
	if keyword == "" {
		return nil, fmt.Errorf("Grouping keyword is empty.")
	}
	if strings.Count(keyword, "*") != 1 {
		return nil, fmt.Errorf("Grouping keyword must contain exactly one '*': %s", keyword)
	}
	before, after, _ := strings.Cut(keyword, "*")
	capture := "(.*?)"
	if after == "" {
		capture = "(.*)"
	}
	return regexp.Compile(regexp.QuoteMeta(before) + capture + regexp.QuoteMeta(after))
}
