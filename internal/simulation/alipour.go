package simulation

import (
	"fmt"

	"github.com/jvdploeg/snncompare/internal/graphs"
)

// ComputeAlipourMarks runs the Alipour mark computation on the input
// graph, mutating the per-node marks, countermarks and weights in
// place. Round 0 marks the maximum-weight neighbor of every node using
// the initial weights; each of the m redistribution rounds after that
// recomputes every node's weight from its marks and random number,
// resets the marks, and marks again.
func ComputeAlipourMarks(input *graphs.Graph, m int, randCeil float64) error {
	for round := 0; round <= m; round++ {
		if round > 0 {
			for i := range input.Nodes {
				node := &input.Nodes[i]
				node.Weight = node.Marks + node.RandomNumber
				node.Marks = 0
				node.Countermarks = 0
			}
		}
		if err := markMaxWeightNeighbors(input, randCeil); err != nil {
			return fmt.Errorf("alipour round %d: %w", round, err)
		}
	}
	return nil
}

// markMaxWeightNeighbors raises the marks of every node's maximum-weight
// neighbor. Node weights include a distinct random number, so ties
// cannot occur between neighbors of one node; a tie means the graph
// state is corrupt.
func markMaxWeightNeighbors(input *graphs.Graph, randCeil float64) error {
	for _, node := range input.Nodes {
		neighbors := input.Neighbors(node.ID)
		if len(neighbors) == 0 {
			return fmt.Errorf("node %s has no neighbors", node.ID)
		}
		maxWeight := input.Node(neighbors[0]).Weight
		for _, id := range neighbors[1:] {
			if w := input.Node(id).Weight; w > maxWeight {
				maxWeight = w
			}
		}

		marked := 0
		for _, id := range neighbors {
			neighbor := input.Node(id)
			if neighbor.Weight == maxWeight {
				neighbor.Marks += randCeil + 1
				neighbor.Countermarks++
				marked++
				if marked > 1 {
					return fmt.Errorf("two neighbors of %s share the maximum weight %v", node.ID, maxWeight)
				}
			}
		}
	}
	return nil
}

// SelectedNodes returns the IDs of the nodes the marks computation
// selected: every node that received at least one countermark.
func SelectedNodes(input *graphs.Graph) []string {
	var selected []string
	for _, node := range input.Nodes {
		if node.Countermarks > 0 {
			selected = append(selected, node.ID)
		}
	}
	return selected
}
