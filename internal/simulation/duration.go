package simulation

import (
	"fmt"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
)

// AttrSimDuration and AttrActualDuration are the graph attributes that
// record the planned and observed simulation length.
const (
	AttrSimDuration    = "sim_duration"
	AttrActualDuration = "actual_duration"
)

// SimDuration computes the number of timesteps needed to simulate the
// configured algorithm on the given input graph. For MDSA with n nodes
// and m approximation iterations that is n*(n+1)*(m+1).
func SimDuration(input *graphs.Graph, cfg *config.RunConfig) (int, error) {
	if cfg.Algorithm.Name != "MDSA" {
		return 0, fmt.Errorf("unsupported algorithm: %q", cfg.Algorithm.Name)
	}
	n := input.NumNodes()
	return n * (n + 1) * (cfg.Algorithm.MVal + 1), nil
}

// GraphDuration looks up a duration attribute stored on a graph,
// falling back to the computed simulation duration when the attribute
// was never recorded.
func GraphDuration(g *graphs.Graph, input *graphs.Graph, cfg *config.RunConfig, name string) (int, error) {
	if v, ok := g.Attr(name); ok {
		switch d := v.(type) {
		case int:
			return d, nil
		case float64:
			// JSON round trips numeric attributes as float64.
			return int(d), nil
		default:
			return 0, fmt.Errorf("duration attribute %s has unexpected type %T", name, v)
		}
	}
	return SimDuration(input, cfg)
}
