package simulation

import (
	"fmt"
	"sort"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
)

// Score computes the stage-4 performance results. The Alipour baseline
// is computed on a copy of the input graph's state; each SNN graph is
// scored by reading its post-propagation receiver voltages and
// comparing the selected node set against the baseline. The input graph
// receives the baseline itself as its results; every SNN graph receives
// its own selection plus the overlap score.
func Score(cfg *config.RunConfig, bundle map[string]*graphs.Graph) error {
	input, ok := bundle[graphs.RoleInputGraph]
	if !ok {
		return fmt.Errorf("input graph missing from bundle")
	}

	baselineGraph := input.Clone()
	randCeil, err := algRandCeil(input)
	if err != nil {
		return err
	}
	if err := ComputeAlipourMarks(baselineGraph, cfg.Algorithm.MVal, randCeil); err != nil {
		return fmt.Errorf("alipour baseline: %w", err)
	}
	baseline := SelectedNodes(baselineGraph)
	sort.Strings(baseline)

	input.Results = map[string]any{
		"selected_nodes": baseline,
	}

	for role, g := range bundle {
		if role == graphs.RoleInputGraph {
			continue
		}
		selected := snnSelectedNodes(input, g)
		sort.Strings(selected)

		g.Results = map[string]any{
			"selected_nodes": selected,
			"baseline_nodes": baseline,
			"score":          overlap(baseline, selected),
			"equal":          equalSets(baseline, selected),
		}
	}
	return nil
}

// snnSelectedNodes derives the SNN's dominating-set selection from the
// propagated voltages: a node is selected when its receiver voltage is
// the maximum among some neighbor's neighborhood, mirroring the
// max-weight-neighbor marking of the Alipour computation.
func snnSelectedNodes(input, snn *graphs.Graph) []string {
	selected := make(map[string]bool)
	for _, node := range input.Nodes {
		neighbors := input.Neighbors(node.ID)
		if len(neighbors) == 0 {
			continue
		}
		best := ""
		bestVoltage := 0.0
		for _, id := range neighbors {
			if v := ReceiverVoltage(snn, id); best == "" || v > bestVoltage {
				best = id
				bestVoltage = v
			}
		}
		if best != "" && bestVoltage > 0 {
			selected[best] = true
		}
	}
	out := make([]string, 0, len(selected))
	for id := range selected {
		out = append(out, id)
	}
	return out
}

// overlap returns the intersection-over-union of the two node sets, or
// 1 when both are empty.
func overlap(baseline, selected []string) float64 {
	if len(baseline) == 0 && len(selected) == 0 {
		return 1
	}
	inBaseline := make(map[string]bool, len(baseline))
	for _, id := range baseline {
		inBaseline[id] = true
	}
	union := make(map[string]bool, len(baseline)+len(selected))
	intersection := 0
	for _, id := range baseline {
		union[id] = true
	}
	for _, id := range selected {
		if inBaseline[id] {
			intersection++
		}
		union[id] = true
	}
	return float64(intersection) / float64(len(union))
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
