package compose

import (
	"fmt"
	"strings"
)

// graph is a typed filtergraph: nodes are filter operations, edges are
// labeled buffers. Serializing from the structure guarantees no empty
// segments and no trailing separator, which the encoder would reject.
type graph struct {
	nodes []graphNode
}

type graphNode struct {
	inputs  []string
	filter  string
	outputs []string
}

// add appends a filter node. Empty filters are a programming error and
// are rejected at construction time rather than surfacing as an encoder
// parse failure.
func (g *graph) add(filter string, inputs, outputs []string) error {
	if strings.TrimSpace(filter) == "" {
		return fmt.Errorf("empty filter node")
	}
	for _, l := range append(append([]string{}, inputs...), outputs...) {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("empty buffer label on filter %q", filter)
		}
	}
	g.nodes = append(g.nodes, graphNode{inputs: inputs, filter: filter, outputs: outputs})
	return nil
}

// serialize renders the graph in encoder syntax.
func (g *graph) serialize() string {
	parts := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		var b strings.Builder
		for _, in := range n.inputs {
			b.WriteString("[" + in + "]")
		}
		b.WriteString(n.filter)
		for _, out := range n.outputs {
			b.WriteString("[" + out + "]")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}
