// Package runner drives the four-stage experiment pipeline. For each
// run it consults the stage completion oracle, executes only the stages
// whose artifacts are missing, persists results through the store, and
// re-verifies completeness after every execution. Resuming an
// interrupted experiment is therefore just running it again: completed
// work is detected and skipped.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
	"github.com/jvdploeg/snncompare/internal/identity"
	"github.com/jvdploeg/snncompare/internal/logging"
	"github.com/jvdploeg/snncompare/internal/results"
	"github.com/jvdploeg/snncompare/internal/stages"
	"github.com/jvdploeg/snncompare/internal/verify"
)

// StageState tracks one stage of one run through the state machine.
type StageState int

const (
	StagePending StageState = iota
	StageRunning
	StageCompleted
)

func (s StageState) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageRunning:
		return "running"
	case StageCompleted:
		return "completed"
	}
	return fmt.Sprintf("StageState(%d)", int(s))
}

// StageVerificationFailedError reports a stage whose completeness check
// still fails after its collaborator executed. This is fatal for the
// run: the full artifact snapshot is attached for diagnosis and the
// stage is not retried.
type StageVerificationFailedError struct {
	Stage int
	Key   string
	Roles []string
}

func (e *StageVerificationFailedError) Error() string {
	return fmt.Sprintf("stage %d executed but its completeness check still fails for run %s, artifacts: %v",
		e.Stage, e.Key, e.Roles)
}

// StageExecutor is the external collaborator that performs the actual
// work of each stage. The runner owns all stage bookkeeping; executors
// never touch the stage records.
type StageExecutor interface {
	// GenerateGraphs performs stage 1 and returns the full graph set.
	GenerateGraphs(ctx context.Context, cfg *config.RunConfig) (map[string]*graphs.Graph, error)

	// Simulate performs stage 2, mutating the SNN graphs in place.
	Simulate(ctx context.Context, cfg *config.RunConfig, bundle map[string]*graphs.Graph) error

	// Visualize performs stage 3, writing image files for the run key.
	Visualize(ctx context.Context, cfg *config.RunConfig, key string, bundle map[string]*graphs.Graph) error

	// Score performs stage 4, attaching results to the graphs.
	Score(ctx context.Context, cfg *config.RunConfig, bundle map[string]*graphs.Graph) error
}

// RunReport summarizes one run after the pipeline finished.
type RunReport struct {
	Key      string
	States   map[int]StageState
	Executed []int
	Skipped  []int
}

// StageRunner executes the four stages of a single run.
type StageRunner struct {
	store  results.Store
	oracle *stages.Oracle
	exec   StageExecutor
	log    *slog.Logger

	// Events receives the per-stage trace. May be nil.
	Events *logging.EventLogger
}

// NewStageRunner wires a stage runner from its collaborators.
func NewStageRunner(store results.Store, oracle *stages.Oracle, exec StageExecutor, log *slog.Logger) *StageRunner {
	return &StageRunner{store: store, oracle: oracle, exec: exec, log: log}
}

// Run drives stages 1-4 for one run config, strictly in order. Already
// completed stages are skipped. After loading a persisted bundle the
// stored config is verified against the requested one; after executing
// a stage its completeness is re-checked, and a still-failing check is
// fatal for the run.
func (r *StageRunner) Run(ctx context.Context, cfg *config.RunConfig) (*RunReport, error) {
	key, err := identity.DeriveKey(cfg)
	if err != nil {
		return nil, err
	}
	log := r.log.With("run", cfg.UniqueID)

	bundle, err := r.store.Load(key)
	if errors.Is(err, results.ErrNotFound) {
		bundle = nil
	} else if err != nil {
		return nil, fmt.Errorf("load run %s: %w", key, err)
	}
	if bundle != nil {
		// Stored configs are normalized, so the requested side is
		// normalized too before the strict comparison.
		if err := verify.AssertConsistent(cfg.Normalized(), bundle.RunConfig); err != nil {
			return nil, err
		}
	}

	report := &RunReport{
		Key:    key,
		States: make(map[int]StageState, stages.LastStage),
	}
	for stage := stages.FirstStage; stage <= stages.LastStage; stage++ {
		report.States[stage] = StagePending
	}

	for stage := stages.FirstStage; stage <= stages.LastStage; stage++ {
		completed, err := r.oracle.HasCompletedStage(cfg, stage, bundle)
		if err != nil {
			return nil, err
		}
		if completed && !r.forced(cfg, stage) {
			log.Debug("stage already completed, skipping", "stage", stage)
			r.Events.Stage(key, stage, "skipped")
			report.States[stage] = StageCompleted
			report.Skipped = append(report.Skipped, stage)
			continue
		}

		report.States[stage] = StageRunning
		log.Info("executing stage", "stage", stage)

		bundle, err = r.executeStage(ctx, cfg, key, stage, bundle)
		if err != nil {
			return nil, fmt.Errorf("run %s stage %d: %w", cfg.UniqueID, stage, err)
		}
		if err := r.store.Save(key, bundle); err != nil {
			return nil, fmt.Errorf("persist run %s after stage %d: %w", key, stage, err)
		}

		completed, err = r.oracle.HasCompletedStage(cfg, stage, bundle)
		if err != nil {
			return nil, err
		}
		if !completed {
			return nil, &StageVerificationFailedError{
				Stage: stage,
				Key:   key,
				Roles: bundle.RoleNames(),
			}
		}
		r.Events.Stage(key, stage, "executed")
		report.States[stage] = StageCompleted
		report.Executed = append(report.Executed, stage)
	}

	return report, nil
}

// forced reports whether an overwrite flag forces re-execution of an
// already completed stage.
func (r *StageRunner) forced(cfg *config.RunConfig, stage int) bool {
	switch stage {
	case 2, 4:
		return cfg.OverwriteSimResults
	case 3:
		return cfg.OverwriteVisualisation
	}
	return false
}

// executeStage invokes the stage's collaborator and performs the
// runner-owned bookkeeping: stage records are marked here and nowhere
// else.
func (r *StageRunner) executeStage(ctx context.Context, cfg *config.RunConfig, key string, stage int, bundle *results.ResultBundle) (*results.ResultBundle, error) {
	switch stage {
	case 1:
		graphSet, err := r.exec.GenerateGraphs(ctx, cfg)
		if err != nil {
			return nil, err
		}
		bundle = &results.ResultBundle{RunConfig: cfg.Normalized(), Graphs: graphSet}
		if err := stages.AssertRolesPresent(cfg, stage, bundle); err != nil {
			return nil, err
		}
		if err := r.markStage(cfg, stage, bundle); err != nil {
			return nil, err
		}
		return bundle, nil

	case 2:
		if err := r.exec.Simulate(ctx, cfg, bundle.Graphs); err != nil {
			return nil, err
		}
		if err := r.markStage(cfg, stage, bundle); err != nil {
			return nil, err
		}
		return bundle, nil

	case 3:
		// Stage 3 completion is evidenced by files on disk, not by the
		// stage record.
		if err := r.exec.Visualize(ctx, cfg, key, bundle.Graphs); err != nil {
			return nil, err
		}
		return bundle, nil

	case 4:
		if err := r.exec.Score(ctx, cfg, bundle.Graphs); err != nil {
			return nil, err
		}
		if err := r.markStage(cfg, stage, bundle); err != nil {
			return nil, err
		}
		return bundle, nil
	}
	return nil, &stages.UnsupportedStageError{Stage: stage}
}

// markStage records the stage on every expected role's artifact.
func (r *StageRunner) markStage(cfg *config.RunConfig, stage int, bundle *results.ResultBundle) error {
	if err := stages.AssertRolesPresent(cfg, stage, bundle); err != nil {
		return err
	}
	for _, role := range stages.ExpectedRoles(cfg) {
		g := bundle.Graphs[role]
		if g.HasCompletedStage(stage) {
			// Forced re-execution of an already recorded stage keeps
			// the record unchanged.
			continue
		}
		if err := g.MarkStageComplete(stage); err != nil {
			return fmt.Errorf("mark stage %d on %s: %w", stage, role, err)
		}
	}
	return nil
}

// ExperimentRunner expands an experiment config and drives the stage
// runner once per unique run config.
type ExperimentRunner struct {
	runner *StageRunner
	log    *slog.Logger
}

// NewExperimentRunner wires an experiment runner.
func NewExperimentRunner(runner *StageRunner, log *slog.Logger) *ExperimentRunner {
	return &ExperimentRunner{runner: runner, log: log}
}

// RunExperiment expands the experiment into run configs, dedupes them
// by canonical key, and runs each to completion. Runs are independent;
// the first failing run aborts the experiment with its error.
func (e *ExperimentRunner) RunExperiment(ctx context.Context, exp *config.ExperimentConfig) ([]*RunReport, error) {
	runs, err := exp.Expand()
	if err != nil {
		return nil, err
	}
	unique, err := DedupeRuns(runs)
	if err != nil {
		return nil, err
	}
	e.log.Info("experiment expanded",
		"experiment", exp.Name, "runs", len(runs), "unique", len(unique))

	reports := make([]*RunReport, 0, len(unique))
	for _, cfg := range unique {
		report, err := e.runner.Run(ctx, cfg)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// DedupeRuns drops run configs whose canonical key was already seen.
// Scheduling duplicate keys in parallel has no mutual-exclusion
// guarantee, so duplicates are removed before execution.
func DedupeRuns(runs []*config.RunConfig) ([]*config.RunConfig, error) {
	seen := make(map[string]bool, len(runs))
	var unique []*config.RunConfig
	for _, cfg := range runs {
		key, err := identity.DeriveKey(cfg)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, cfg)
	}
	return unique, nil
}
