package simulation

import (
	"context"
	"fmt"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
	"github.com/jvdploeg/snncompare/internal/stages"
	"github.com/jvdploeg/snncompare/internal/visualization"
)

// Executor is the default implementation of the four stage-execution
// collaborators the pipeline invokes. Viz may be nil when image export
// is disabled.
type Executor struct {
	Viz *visualization.Exporter
}

// GenerateGraphs runs stage 1: it builds the input graph and every SNN
// variant the run config expects.
func (e *Executor) GenerateGraphs(ctx context.Context, cfg *config.RunConfig) (map[string]*graphs.Graph, error) {
	input, err := GenerateInputGraph(cfg)
	if err != nil {
		return nil, fmt.Errorf("generate input graph: %w", err)
	}

	out := map[string]*graphs.Graph{graphs.RoleInputGraph: input}
	for _, role := range stages.ExpectedRoles(cfg) {
		if role == graphs.RoleInputGraph {
			continue
		}
		withAdaptation, err := graphs.RoleHasAdaptation(role)
		if err != nil {
			return nil, err
		}
		withRadiation, err := graphs.RoleHasRadiation(role)
		if err != nil {
			return nil, err
		}
		snn, err := BuildSNN(input, cfg, withAdaptation, withRadiation)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", role, err)
		}
		out[role] = snn
	}
	return out, nil
}

// Simulate runs stage 2: it propagates every SNN graph for its stored
// simulation duration.
func (e *Executor) Simulate(ctx context.Context, cfg *config.RunConfig, bundle map[string]*graphs.Graph) error {
	for role, g := range bundle {
		if role == graphs.RoleInputGraph {
			continue
		}
		if err := Propagate(g); err != nil {
			return fmt.Errorf("propagate %s: %w", role, err)
		}
	}
	return nil
}

// Visualize runs stage 3: it exports the per-timestep images when
// export is enabled, and is a no-op otherwise.
func (e *Executor) Visualize(ctx context.Context, cfg *config.RunConfig, key string, bundle map[string]*graphs.Graph) error {
	if e.Viz == nil || !cfg.ExportSNNs {
		return nil
	}
	input, ok := bundle[graphs.RoleInputGraph]
	if !ok {
		return fmt.Errorf("input graph missing from bundle")
	}
	duration, err := SimDuration(input, cfg)
	if err != nil {
		return err
	}
	return e.Viz.Export(cfg, key, bundle, duration)
}

// Score runs stage 4: it computes the Alipour baseline and the per-SNN
// performance results.
func (e *Executor) Score(ctx context.Context, cfg *config.RunConfig, bundle map[string]*graphs.Graph) error {
	return Score(cfg, bundle)
}
