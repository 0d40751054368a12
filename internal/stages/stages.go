// Package stages decides which pipeline stages have already completed
// for a run, based on the persisted artifacts. It is the single source
// of truth for what "stage N is done" means:
//
//	stage 1: every expected graph role exists and records stage 1
//	stage 2: every expected role records stage 2
//	stage 3: every expected image file exists on disk
//	stage 4: every expected role records stage 4 and carries results
//
// Stage 3 is deliberately checked by file existence only; image content
// is never validated.
package stages

import (
	"fmt"
	"os"
	"sort"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
	"github.com/jvdploeg/snncompare/internal/identity"
	"github.com/jvdploeg/snncompare/internal/results"
)

// FirstStage and LastStage bound the pipeline.
const (
	FirstStage = 1
	LastStage  = 4
)

// MissingGraphError reports a required graph role absent from a bundle
// at verification time, together with the roles that are present.
type MissingGraphError struct {
	Role    string
	Stage   int
	Present []string
}

func (e *MissingGraphError) Error() string {
	return fmt.Sprintf("graph %q missing for stage %d, present graphs: %v",
		e.Role, e.Stage, e.Present)
}

// UnsupportedStageError reports a stage index with no defined
// completeness rule.
type UnsupportedStageError struct {
	Stage int
}

func (e *UnsupportedStageError) Error() string {
	return fmt.Sprintf("stage %d has no completeness rule (supported: %d-%d)",
		e.Stage, FirstStage, LastStage)
}

// ExpectedRoles returns the graph roles a run must produce. The input
// graph and the plain SNN graph are always expected; the adapted variant
// is added when adaptation is configured, the radiation variants when
// radiation is configured. A radiation variant is only expected together
// with its non-radiation counterpart, so enabling either axis only ever
// adds roles. The same role set applies to every stage.
func ExpectedRoles(cfg *config.RunConfig) []string {
	roles := []string{graphs.RoleInputGraph, graphs.RoleSNNAlgoGraph}
	if cfg.HasAdaptation() {
		roles = append(roles, graphs.RoleAdaptedSNNGraph)
	}
	if cfg.HasRadiation() {
		roles = append(roles, graphs.RoleRadSNNAlgoGraph)
		if cfg.HasAdaptation() {
			roles = append(roles, graphs.RoleRadAdaptedSNNGraph)
		}
	}
	return roles
}

// ExpectedStages returns the stage indices whose completion is recorded
// in the per-graph stage record by the time the given stage is done.
// Stage 3 never appears: its completion is evidenced by files on disk,
// not by the record.
func ExpectedStages(stage int) []int {
	var out []int
	for s := FirstStage; s <= stage; s++ {
		if s == 3 {
			continue
		}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Oracle answers stage-completion questions for run configs. SimDuration
// is the external collaborator that reports how many timesteps a
// simulation covers; it is only consulted for stage 3.
type Oracle struct {
	// Root is the directory that results/ and image paths live under.
	Root string

	// Extensions are the image extensions requested for export. Empty
	// means export is off and stage 3 has no file evidence to check.
	Extensions []string

	// SimDuration reports the simulation duration for a run, given its
	// input graph.
	SimDuration func(input *graphs.Graph, cfg *config.RunConfig) (int, error)
}

// HasCompletedStage reports whether every expected artifact for the
// stage already exists. A nil bundle means nothing was persisted yet.
// Missing roles make the stage incomplete; they are only an error when
// asserted via AssertRolesPresent.
func (o *Oracle) HasCompletedStage(cfg *config.RunConfig, stage int, bundle *results.ResultBundle) (bool, error) {
	if stage < FirstStage || stage > LastStage {
		return false, &UnsupportedStageError{Stage: stage}
	}
	if stage == 3 {
		return o.hasStage3Images(cfg, bundle)
	}
	if bundle == nil {
		return false, nil
	}
	for _, role := range ExpectedRoles(cfg) {
		g, ok := bundle.Graphs[role]
		if !ok {
			return false, nil
		}
		if !g.HasCompletedStage(stage) {
			return false, nil
		}
		if stage == 4 && g.Results == nil {
			return false, nil
		}
	}
	return true, nil
}

// hasStage3Images checks stage 3 completion by image file existence.
// When export is off there is nothing to produce, so the stage is
// complete as soon as stage 2 is.
func (o *Oracle) hasStage3Images(cfg *config.RunConfig, bundle *results.ResultBundle) (bool, error) {
	simulated, err := o.HasCompletedStage(cfg, 2, bundle)
	if err != nil {
		return false, err
	}
	if !simulated {
		return false, nil
	}
	if !cfg.ExportSNNs || len(o.Extensions) == 0 {
		return true, nil
	}

	input, ok := bundle.Graphs[graphs.RoleInputGraph]
	if !ok {
		return false, nil
	}
	key, err := identity.DeriveKey(cfg)
	if err != nil {
		return false, err
	}
	duration, err := o.SimDuration(input, cfg)
	if err != nil {
		return false, fmt.Errorf("simulation duration for stage 3 check: %w", err)
	}

	paths := results.ExpectedImagePaths(o.Root, ExpectedRoles(cfg), key, o.Extensions, duration)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return false, nil
		}
	}
	return true, nil
}

// AssertRolesPresent fails with a MissingGraphError when an expected
// role is absent from the bundle.
func AssertRolesPresent(cfg *config.RunConfig, stage int, bundle *results.ResultBundle) error {
	for _, role := range ExpectedRoles(cfg) {
		if bundle == nil || bundle.Graphs[role] == nil {
			return &MissingGraphError{
				Role:    role,
				Stage:   stage,
				Present: bundle.RoleNames(),
			}
		}
	}
	return nil
}
