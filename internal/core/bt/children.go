package bt

// ChildrenNodes is an ordered child list with a cursor used for sequential
// activation. Insertion order is execution order.
type ChildrenNodes struct {
	nodes []NodeID
	next  int
}

func NewChildren(ids ...NodeID) ChildrenNodes {
	nodes := make([]NodeID, len(ids))
	copy(nodes, ids)
	return ChildrenNodes{nodes: nodes}
}

// Next returns the child under the cursor and advances it.
func (c *ChildrenNodes) Next() (NodeID, bool) {
	if c.next >= len(c.nodes) {
		return NoNode, false
	}
	id := c.nodes[c.next]
	c.next++
	return id, true
}

// Get peeks at the child under the cursor without advancing.
func (c *ChildrenNodes) Get() (NodeID, bool) {
	if c.next >= len(c.nodes) {
		return NoNode, false
	}
	return c.nodes[c.next], true
}

// Current returns the child most recently returned by Next.
func (c *ChildrenNodes) Current() (NodeID, bool) {
	if c.next == 0 {
		return NoNode, false
	}
	return c.nodes[c.next-1], true
}

func (c *ChildrenNodes) Reset() { c.next = 0 }

func (c *ChildrenNodes) Len() int { return len(c.nodes) }

// Cursor is the index of the next child to be returned by Next.
func (c *ChildrenNodes) Cursor() int { return c.next }

func (c *ChildrenNodes) Contains(id NodeID) bool {
	for _, n := range c.nodes {
		if n == id {
			return true
		}
	}
	return false
}

func (c *ChildrenNodes) All() []NodeID { return c.nodes }
