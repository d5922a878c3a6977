package graph

import (
	"slices"
	"time"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/util"
)

// Graph owns nodes and the connections between them. Node order is
// significant: it breaks ties wherever traversal order is otherwise free.
type Graph struct {
	LastModified time.Time
	Nodes        []*Node
	Connections  []*Connection
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{LastModified: time.Now().UTC()}
}

// FindNode returns the node with id, or nil.
func (g *Graph) FindNode(id string) *Node {
	return findNode(g.Nodes, id)
}

// FindConnection returns the connection with id, or nil.
func (g *Graph) FindConnection(id string) *Connection {
	for _, c := range g.Connections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// AddNode appends n. Ids must be unique.
func (g *Graph) AddNode(n *Node) error {
	if g.FindNode(n.ID) != nil {
		return errors.AlreadyExists("node", n.ID)
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// RemoveNode deletes the node and every connection touching it.
func (g *Graph) RemoveNode(id string) bool {
	before := len(g.Nodes)
	g.Nodes = slices.DeleteFunc(g.Nodes, func(n *Node) bool { return n.ID == id })
	if len(g.Nodes) == before {
		return false
	}
	g.Connections = slices.DeleteFunc(g.Connections, func(c *Connection) bool {
		return c.FromNodeID == id || c.ToNodeID == id
	})
	return true
}

// Connect joins an output point of from to an input point of to. An empty
// label takes the output point's label. An input point accepts one
// connection per label.
func (g *Graph) Connect(fromNodeID, fromPointID, toNodeID, toPointID, label string) (*Connection, error) {
	from, to := g.FindNode(fromNodeID), g.FindNode(toNodeID)
	if from == nil {
		return nil, errors.NotFound("node", fromNodeID)
	}
	if to == nil {
		return nil, errors.NotFound("node", toNodeID)
	}
	out := from.FindOutputPoint(fromPointID)
	if out == nil {
		return nil, errors.NotFound("output point", fromPointID)
	}
	if to.FindInputPoint(toPointID) == nil {
		return nil, errors.NotFound("input point", toPointID)
	}
	if label == "" {
		label = out.Label
	}
	for _, c := range g.Connections {
		if c.ToPointID == toPointID && c.Label == label {
			return nil, errors.Conflict("input point already has a connection labelled " + label)
		}
	}
	c := &Connection{
		ID:          util.NewID(),
		Label:       label,
		FromNodeID:  fromNodeID,
		FromPointID: fromPointID,
		ToNodeID:    toNodeID,
		ToPointID:   toPointID,
	}
	g.Connections = append(g.Connections, c)
	return c, nil
}

// Disconnect removes the connection with id.
func (g *Graph) Disconnect(id string) bool {
	before := len(g.Connections)
	g.Connections = slices.DeleteFunc(g.Connections, func(c *Connection) bool { return c.ID == id })
	return len(g.Connections) != before
}

// Incoming returns the connections ending at nodeID, in graph order.
func (g *Graph) Incoming(nodeID string) []*Connection {
	return util.Filter(g.Connections, func(c *Connection) bool { return c.ToNodeID == nodeID })
}

// Outgoing returns the connections leaving nodeID, in graph order.
func (g *Graph) Outgoing(nodeID string) []*Connection {
	return util.Filter(g.Connections, func(c *Connection) bool { return c.FromNodeID == nodeID })
}

// SubGraph returns the nodes reachable from roots, roots included, and the
// connections among them. Nodes and connections are shared with g, not
// copied; order follows g. Unknown roots are ignored.
func (g *Graph) SubGraph(roots ...string) *Graph {
	reached := map[string]bool{}
	stack := slices.Clone(roots)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] || g.FindNode(id) == nil {
			continue
		}
		reached[id] = true
		for _, c := range g.Outgoing(id) {
			stack = append(stack, c.ToNodeID)
		}
	}

	sub := &Graph{LastModified: g.LastModified}
	for _, n := range g.Nodes {
		if reached[n.ID] {
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	for _, c := range g.Connections {
		if reached[c.FromNodeID] && reached[c.ToNodeID] {
			sub.Connections = append(sub.Connections, c)
		}
	}
	return sub
}

// CollectAllLeafNodes returns the nodes that are not the source of any
// connection.
func (g *Graph) CollectAllLeafNodes() []*Node {
	sources := map[string]bool{}
	for _, c := range g.Connections {
		sources[c.FromNodeID] = true
	}
	return g.CollectAllNodes(func(n *Node) bool { return !sources[n.ID] })
}

// CollectAllNodes returns the nodes matching pred, in graph order.
func (g *Graph) CollectAllNodes(pred func(*Node) bool) []*Node {
	return util.Filter(g.Nodes, pred)
}

// Loaders returns the Loader nodes.
func (g *Graph) Loaders() []*Node {
	return g.CollectAllNodes(func(n *Node) bool { return n.Kind() == KindLoader })
}

// Clone returns a deep copy with the same ids.
func (g *Graph) Clone() *Graph {
	cp := &Graph{
		LastModified: g.LastModified,
		Nodes:        make([]*Node, len(g.Nodes)),
		Connections:  make([]*Connection, len(g.Connections)),
	}
	for i, n := range g.Nodes {
		cp.Nodes[i] = n.Clone()
	}
	for i, c := range g.Connections {
		cp.Connections[i] = c.Clone()
	}
	return cp
}
