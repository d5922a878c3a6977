package graph

import (
	"slices"
	"time"
)

// Report describes what Validate changed.
type Report struct {
	Changed            bool
	RemovedNodes       []string
	RemovedConnections []string
	Warnings           []string
}

// Validate heals the graph in place. Duplicate ids and nodes or connections
// that fail their own Validate are removed; connections are checked after
// node removal so they cannot dangle. A second connection with the same
// label on one input point is removed, and so are the connections that
// close a cycle. Settings that Node.Repair fixes also count as a change.
// LastModified is bumped when anything changed.
func (g *Graph) Validate() Report {
	var r Report

	seen := map[string]bool{}
	kept := g.Nodes[:0:0]
	for _, n := range g.Nodes {
		if n == nil {
			r.Changed = true
			continue
		}
		if seen[n.ID] || !n.Validate(g.Nodes, g.Connections) {
			r.RemovedNodes = append(r.RemovedNodes, n.ID)
			continue
		}
		seen[n.ID] = true
		kept = append(kept, n)
	}
	g.Nodes = kept

	seen = map[string]bool{}
	labels := map[string]bool{}
	keptConns := g.Connections[:0:0]
	for _, c := range g.Connections {
		if c == nil {
			r.Changed = true
			continue
		}
		label := c.ToPointID + "\x00" + c.Label
		if seen[c.ID] || labels[label] || !c.Validate(g.Nodes, g.Connections) {
			r.RemovedConnections = append(r.RemovedConnections, c.ID)
			continue
		}
		seen[c.ID] = true
		labels[label] = true
		keptConns = append(keptConns, c)
	}
	g.Connections = keptConns

	if cyclic := g.cycleConnections(); len(cyclic) > 0 {
		r.RemovedConnections = append(r.RemovedConnections, cyclic...)
		g.Connections = slices.DeleteFunc(g.Connections, func(c *Connection) bool {
			return slices.Contains(cyclic, c.ID)
		})
	}

	for _, n := range g.Nodes {
		r.Warnings = append(r.Warnings, n.Repair()...)
	}

	if len(r.RemovedNodes) > 0 || len(r.RemovedConnections) > 0 || len(r.Warnings) > 0 {
		r.Changed = true
	}
	if r.Changed {
		g.LastModified = time.Now().UTC()
	}
	return r
}

// cycleConnections returns the connections that close a cycle, in graph
// order. Nodes are released Kahn style in graph order. When every remaining
// node still has an incoming connection, the first remaining node that lies
// on a cycle loses the incoming connections that lead back to it.
func (g *Graph) cycleConnections() []string {
	cut := map[string]bool{}
	done := make(map[string]bool, len(g.Nodes))
	live := func(c *Connection) bool { return !cut[c.ID] && !done[c.FromNodeID] }

	// reaches reports whether to can be reached from from over live
	// connections between remaining nodes.
	reaches := func(from, to string) bool {
		visited := map[string]bool{}
		stack := []string{from}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, c := range g.Connections {
				if c.FromNodeID != id || !live(c) || done[c.ToNodeID] {
					continue
				}
				if c.ToNodeID == to {
					return true
				}
				if !visited[c.ToNodeID] {
					visited[c.ToNodeID] = true
					stack = append(stack, c.ToNodeID)
				}
			}
		}
		return false
	}
	blocked := func(id string) bool {
		for _, c := range g.Connections {
			if c.ToNodeID == id && live(c) {
				return true
			}
		}
		return false
	}

	for len(done) < len(g.Nodes) {
		released := false
		for _, n := range g.Nodes {
			if !done[n.ID] && !blocked(n.ID) {
				done[n.ID] = true
				released = true
				break
			}
		}
		if released {
			continue
		}
		for _, n := range g.Nodes {
			if done[n.ID] || !reaches(n.ID, n.ID) {
				continue
			}
			for _, c := range g.Connections {
				if c.ToNodeID == n.ID && live(c) && (c.FromNodeID == n.ID || reaches(n.ID, c.FromNodeID)) {
					cut[c.ID] = true
				}
			}
			break
		}
	}

	var ids []string
	for _, c := range g.Connections {
		if cut[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
