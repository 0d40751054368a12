// Package graphs defines the graph artifacts produced by the experiment
// pipeline: the input graph and the SNN variants derived from it, plus
// the per-artifact record of completed pipeline stages.
package graphs

import (
	"fmt"
	"sort"
)

// Node is a single node of a graph artifact. For input graphs the Alipour
// fields (Marks, Countermarks, RandomNumber, Weight) carry the algorithm
// state; for SNN graphs the neuron fields (Voltage, Threshold, Dead)
// carry the simulation state.
type Node struct {
	ID string `json:"id"`

	// Alipour algorithm state.
	Weight       float64 `json:"weight,omitempty"`
	Marks        float64 `json:"marks,omitempty"`
	Countermarks int     `json:"countermarks,omitempty"`
	RandomNumber float64 `json:"random_number,omitempty"`

	// Neuron state.
	Voltage   float64 `json:"voltage,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Spikes    int     `json:"spikes,omitempty"`
	Dead      bool    `json:"dead,omitempty"`
}

// Edge connects two nodes. Input graphs are undirected; SNN graphs treat
// Source -> Target as the synapse direction.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is one pipeline artifact. CompletedStages is the stage record:
// nil until stage 1 initializes it, then monotonically growing. Results
// is set by stage 4 only.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	CompletedStages []int          `json:"completed_stages"`
	Results         map[string]any `json:"results,omitempty"`

	// Attrs holds derived graph attributes such as alg_props and
	// actual_duration.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// New returns an empty graph with no stage record.
func New() *Graph {
	return &Graph{}
}

// AddNode appends a node. Duplicate IDs are the caller's bug and are
// rejected.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("node ID must not be empty")
	}
	for _, existing := range g.Nodes {
		if existing.ID == n.ID {
			return fmt.Errorf("duplicate node ID: %s", n.ID)
		}
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// AddEdge appends an edge between existing nodes.
func (g *Graph) AddEdge(e Edge) error {
	if g.Node(e.Source) == nil {
		return fmt.Errorf("edge source %s not in graph", e.Source)
	}
	if g.Node(e.Target) == nil {
		return fmt.Errorf("edge target %s not in graph", e.Target)
	}
	g.Edges = append(g.Edges, e)
	return nil
}

// Node returns a pointer to the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Neighbors returns the IDs of nodes adjacent to id, treating edges as
// undirected.
func (g *Graph) Neighbors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		switch id {
		case e.Source:
			out = append(out, e.Target)
		case e.Target:
			out = append(out, e.Source)
		}
	}
	return out
}

// Degree returns the undirected degree of a node.
func (g *Graph) Degree(id string) int {
	return len(g.Neighbors(id))
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.Nodes)
}

// SetAttr stores a graph attribute.
func (g *Graph) SetAttr(key string, value any) {
	if g.Attrs == nil {
		g.Attrs = make(map[string]any)
	}
	g.Attrs[key] = value
}

// Attr returns a graph attribute and whether it is present.
func (g *Graph) Attr(key string) (any, bool) {
	v, ok := g.Attrs[key]
	return v, ok
}

// MarkStageComplete records a stage index in the stage record. Stage 1
// initializes the record and fails if it already exists; later stages
// fail if the record was never initialized. Marking the same stage twice
// always fails.
func (g *Graph) MarkStageComplete(stage int) error {
	if stage == 1 {
		if g.CompletedStages != nil {
			return fmt.Errorf("stage record already initialized at stage 1: %v", g.CompletedStages)
		}
		g.CompletedStages = []int{}
	} else if g.CompletedStages == nil {
		return fmt.Errorf("stage record not initialized before stage %d", stage)
	}
	for _, s := range g.CompletedStages {
		if s == stage {
			return fmt.Errorf("stage %d already recorded in %v", stage, g.CompletedStages)
		}
	}
	g.CompletedStages = append(g.CompletedStages, stage)
	return nil
}

// HasCompletedStage reports whether the stage record contains the given
// stage index.
func (g *Graph) HasCompletedStage(stage int) bool {
	for _, s := range g.CompletedStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: append([]Node(nil), g.Nodes...),
		Edges: append([]Edge(nil), g.Edges...),
	}
	if g.CompletedStages != nil {
		out.CompletedStages = append([]int{}, g.CompletedStages...)
	}
	if g.Results != nil {
		out.Results = make(map[string]any, len(g.Results))
		for k, v := range g.Results {
			out.Results[k] = v
		}
	}
	if g.Attrs != nil {
		out.Attrs = make(map[string]any, len(g.Attrs))
		for k, v := range g.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// NodeIDs returns all node IDs in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	return ids
}
