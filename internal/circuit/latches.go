package circuit

import (
	"fmt"
	"slices"
)

// Latches maps a node index to the value the node holds under every leaf
// assignment. Evaluators treat latched nodes as constants.
type Latches map[int]bool

// Check returns an error if a latch names a node that is not a derived node
// of c. Leaves and transitions cannot be latched.
func (l Latches) Check(c *Circuit) error {
	for _, i := range l.Indices() {
		if i < 0 || i >= c.Len() {
			return fmt.Errorf("latch on node %d: index out of range", i)
		}
		n := c.Node(i)
		if n.IsLeaf() || n.Kind == KindTransition {
			return fmt.Errorf("latch on node %d (%s): not a derived node", i, n.Label())
		}
	}
	return nil
}

// Indices returns the latched node indices in ascending order.
func (l Latches) Indices() []int {
	out := make([]int, 0, len(l))
	for i := range l {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Names returns the latches keyed by node name.
func (l Latches) Names(c *Circuit) map[string]bool {
	out := make(map[string]bool, len(l))
	for i, v := range l {
		out[c.Node(i).Name] = v
	}
	return out
}
