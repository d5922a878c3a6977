package graph

// Connection carries data from an output point to an input point.
type Connection struct {
	ID          string
	Label       string
	FromNodeID  string
	FromPointID string
	ToNodeID    string
	ToPointID   string
}

// Validate reports whether both endpoints exist: the source node with the
// output point and the target node with the input point.
func (c *Connection) Validate(nodes []*Node, conns []*Connection) bool {
	if c.ID == "" {
		return false
	}
	from := findNode(nodes, c.FromNodeID)
	to := findNode(nodes, c.ToNodeID)
	if from == nil || to == nil {
		return false
	}
	return from.FindOutputPoint(c.FromPointID) != nil && to.FindInputPoint(c.ToPointID) != nil
}

// Clone returns a copy.
func (c *Connection) Clone() *Connection {
	cp := *c
	return &cp
}

func findNode(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
