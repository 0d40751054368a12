// Package visualization renders graph artifacts as Graphviz DOT and
// writes the per-run image files the pipeline's stage-3 contract
// expects.
package visualization

import (
	"fmt"
	"strings"

	"github.com/jvdploeg/snncompare/internal/graphs"
)

// neuronColors maps neuron states to DOT fill colors.
var neuronColors = map[string]string{
	"spiked": "goldenrod",
	"dead":   "tomato",
	"idle":   "steelblue",
}

// RenderDOT produces a Graphviz DOT representation of a graph artifact
// at one simulated timestep. The timestep only affects the title; node
// state reflects the graph as persisted.
func RenderDOT(g *graphs.Graph, role string, timestep int) string {
	var b strings.Builder
	b.WriteString("digraph snncompare {\n")
	fmt.Fprintf(&b, "  label=%q;\n", fmt.Sprintf("%s t=%d", role, timestep))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\"];\n\n")

	for _, node := range g.Nodes {
		state := "idle"
		switch {
		case node.Dead:
			state = "dead"
		case node.Spikes > 0:
			state = "spiked"
		}
		label := node.ID
		if node.Countermarks > 0 || node.Marks > 0 {
			label = fmt.Sprintf("%s M:%v C:%d", node.ID, node.Marks, node.Countermarks)
		}
		fmt.Fprintf(&b, "  %q [label=%q, fillcolor=%q, tooltip=\"v=%.2f\"];\n",
			node.ID, label, neuronColors[state], node.Voltage)
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q [weight=\"%.1f\"];\n", e.Source, e.Target, e.Weight)
	}

	b.WriteString("}\n")
	return b.String()
}
