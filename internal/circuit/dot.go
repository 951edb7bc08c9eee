package circuit

import (
	"bufio"
	"fmt"
	"io"
)

var dotShapes = map[Kind]string{
	KindAnd:         "invhouse",
	KindOr:          "ellipse",
	KindNot:         "invtriangle",
	KindConstant:    "doublecircle",
	KindTransition:  "box",
	KindProposition: "circle",
}

// WriteDot renders c in Graphviz DOT syntax. value, when non-nil, colours
// propositions red when true and white otherwise; gates are always grey.
func WriteDot(w io.Writer, c *Circuit, value func(int) bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph propnet {")
	for i := range c.nodes {
		n := &c.nodes[i]
		fill := "grey"
		if n.Kind == KindProposition {
			fill = "white"
			if value != nil && value(i) {
				fill = "red"
			}
		}
		fmt.Fprintf(bw, "\t\"@%d\"[shape=%s, style=filled, fillcolor=%s, label=%q];\n",
			i, dotShapes[n.Kind], fill, n.Label())
	}
	for i := range c.nodes {
		for _, out := range c.nodes[i].Outputs {
			fmt.Fprintf(bw, "\t\"@%d\"->\"@%d\";\n", i, out)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
