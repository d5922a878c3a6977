package controller

import "github.com/kbukum/assetgraph/graph"

// progress hands out equal deltas per visit. The last visit receives the
// remainder so a full pass sums to exactly 1.
type progress struct {
	total int
	seen  int
	sum   float64
	fn    func(*graph.Node, float64)
}

func newProgress(total int, fn func(*graph.Node, float64)) *progress {
	return &progress{total: total, fn: fn}
}

func (p *progress) visited(n *graph.Node) {
	if p.fn == nil || p.total == 0 {
		return
	}
	p.seen++
	delta := 1 / float64(p.total)
	if p.seen == p.total {
		delta = 1 - p.sum
	}
	p.sum += delta
	p.fn(n, delta)
}
