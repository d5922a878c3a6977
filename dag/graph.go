package dag

import (
	"sort"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
)

// Schedule is the execution order of a graph.
type Schedule struct {
	Graph *graph.Graph
	// Order lists every node once; a node comes after all its upstream nodes.
	Order []*graph.Node
	// Levels groups node ids by dependency depth.
	Levels [][]string

	incoming map[string][]*graph.Connection
	outgoing map[string][]*graph.Connection
	index    map[string]int
}

// Plan uses Kahn's algorithm to order g's nodes. Ties are broken by the
// position of the nodes in g, so equal graphs always yield the same order.
// Unknown endpoints, duplicate node ids and cycles are integrity errors.
func Plan(g *graph.Graph) (*Schedule, error) {
	s := &Schedule{
		Graph:    g,
		incoming: make(map[string][]*graph.Connection),
		outgoing: make(map[string][]*graph.Connection),
		index:    make(map[string]int, len(g.Nodes)),
	}

	inDegree := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := s.index[n.ID]; dup {
			return nil, errors.GraphIntegrity("dag: duplicate node id %q", n.ID)
		}
		s.index[n.ID] = i
		inDegree[n.ID] = 0
	}

	dependents := make(map[string][]string)
	for _, c := range g.Connections {
		if _, ok := s.index[c.FromNodeID]; !ok {
			return nil, errors.GraphIntegrity("dag: connection %q references unknown node %q", c.ID, c.FromNodeID)
		}
		if _, ok := s.index[c.ToNodeID]; !ok {
			return nil, errors.GraphIntegrity("dag: connection %q references unknown node %q", c.ID, c.ToNodeID)
		}
		s.outgoing[c.FromNodeID] = append(s.outgoing[c.FromNodeID], c)
		s.incoming[c.ToNodeID] = append(s.incoming[c.ToNodeID], c)
		inDegree[c.ToNodeID]++
		dependents[c.FromNodeID] = append(dependents[c.FromNodeID], c.ToNodeID)
	}

	var queue []string
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		s.Levels = append(s.Levels, queue)
		for _, id := range queue {
			s.Order = append(s.Order, g.Nodes[s.index[id]])
		}

		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return s.index[next[i]] < s.index[next[j]] })
		queue = next
	}

	if len(s.Order) != len(g.Nodes) {
		return nil, errors.GraphIntegrity("dag: cycle detected, processed %d of %d nodes", len(s.Order), len(g.Nodes))
	}
	return s, nil
}

// Len returns the number of scheduled nodes.
func (s *Schedule) Len() int { return len(s.Order) }

// Incoming returns the connections ending at node id, in graph order.
func (s *Schedule) Incoming(id string) []*graph.Connection { return s.incoming[id] }

// Outgoing returns the connections leaving node id, in graph order.
func (s *Schedule) Outgoing(id string) []*graph.Connection { return s.outgoing[id] }

// Sources returns the nodes without incoming connections.
func (s *Schedule) Sources() []*graph.Node {
	var out []*graph.Node
	for _, n := range s.Order {
		if len(s.incoming[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}
