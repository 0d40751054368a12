package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
	"github.com/jvdploeg/snncompare/internal/identity"
	"github.com/jvdploeg/snncompare/internal/results"
	"github.com/jvdploeg/snncompare/internal/stages"
	"github.com/jvdploeg/snncompare/internal/verify"
)

func testRunConfig() *config.RunConfig {
	return &config.RunConfig{
		UniqueID:  "run-1",
		GraphSize: 4,
		GraphNr:   0,
		Algorithm: config.Algorithm{Name: "MDSA", MVal: 1},
		Seed:      42,
		Simulator: "nx",
	}
}

// countingExecutor records how often each stage ran and produces
// minimal artifacts that satisfy the completion oracle.
type countingExecutor struct {
	generated  int
	simulated  int
	visualized int
	scored     int

	// skipResults leaves stage 4 without result attributes, so the
	// post-execution completeness check fails.
	skipResults bool
}

func (c *countingExecutor) GenerateGraphs(_ context.Context, cfg *config.RunConfig) (map[string]*graphs.Graph, error) {
	c.generated++
	set := make(map[string]*graphs.Graph)
	for _, role := range stages.ExpectedRoles(cfg) {
		g := graphs.New()
		if err := g.AddNode(graphs.Node{ID: "n0"}); err != nil {
			return nil, err
		}
		set[role] = g
	}
	return set, nil
}

func (c *countingExecutor) Simulate(_ context.Context, _ *config.RunConfig, _ map[string]*graphs.Graph) error {
	c.simulated++
	return nil
}

func (c *countingExecutor) Visualize(_ context.Context, _ *config.RunConfig, _ string, _ map[string]*graphs.Graph) error {
	c.visualized++
	return nil
}

func (c *countingExecutor) Score(_ context.Context, _ *config.RunConfig, bundle map[string]*graphs.Graph) error {
	c.scored++
	if c.skipResults {
		return nil
	}
	for _, g := range bundle {
		g.Results = map[string]any{"selected_nodes": []string{"n0"}}
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T, exec StageExecutor) (*StageRunner, results.Store) {
	t.Helper()
	store, err := results.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	oracle := &stages.Oracle{}
	return NewStageRunner(store, oracle, exec, testLogger()), store
}

func TestStageRunnerFreshRun(t *testing.T) {
	exec := &countingExecutor{}
	r, store := newTestRunner(t, exec)

	report, err := r.Run(context.Background(), testRunConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if exec.generated != 1 || exec.simulated != 1 || exec.scored != 1 {
		t.Errorf("stage calls = %d/%d/%d, want 1/1/1",
			exec.generated, exec.simulated, exec.scored)
	}
	// Image export is disabled, so visualization completeness follows
	// simulation directly and stage 3 never executes.
	if exec.visualized != 0 {
		t.Errorf("visualized %d times, want 0", exec.visualized)
	}
	for stage := 1; stage <= 4; stage++ {
		if report.States[stage] != StageCompleted {
			t.Errorf("stage %d state = %v, want completed", stage, report.States[stage])
		}
	}

	bundle, err := store.Load(report.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for role, g := range bundle.Graphs {
		for _, stage := range []int{1, 2, 4} {
			if !g.HasCompletedStage(stage) {
				t.Errorf("role %s missing stage %d record", role, stage)
			}
		}
		if g.HasCompletedStage(3) {
			t.Errorf("role %s has stage 3 in its record", role)
		}
	}
}

func TestStageRunnerIdempotent(t *testing.T) {
	exec := &countingExecutor{}
	r, _ := newTestRunner(t, exec)
	cfg := testRunConfig()

	if _, err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	report, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if exec.generated != 1 || exec.simulated != 1 || exec.scored != 1 {
		t.Errorf("second run re-executed stages: %d/%d/%d",
			exec.generated, exec.simulated, exec.scored)
	}
	if len(report.Executed) != 0 {
		t.Errorf("second run executed %v, want none", report.Executed)
	}
	if len(report.Skipped) != 4 {
		t.Errorf("second run skipped %v, want all four stages", report.Skipped)
	}
}

func TestStageRunnerOverwriteSimResults(t *testing.T) {
	exec := &countingExecutor{}
	r, _ := newTestRunner(t, exec)
	cfg := testRunConfig()

	if _, err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	cfg2 := cfg.Clone()
	cfg2.OverwriteSimResults = true
	report, err := r.Run(context.Background(), cfg2)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if exec.generated != 1 {
		t.Errorf("generation re-ran %d times", exec.generated)
	}
	if exec.simulated != 2 || exec.scored != 2 {
		t.Errorf("simulate/score = %d/%d, want 2/2", exec.simulated, exec.scored)
	}
	want := []int{2, 4}
	if len(report.Executed) != len(want) || report.Executed[0] != 2 || report.Executed[1] != 4 {
		t.Errorf("Executed = %v, want %v", report.Executed, want)
	}
}

func TestStageRunnerVerificationFailure(t *testing.T) {
	exec := &countingExecutor{skipResults: true}
	r, _ := newTestRunner(t, exec)

	_, err := r.Run(context.Background(), testRunConfig())
	var verr *StageVerificationFailedError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want StageVerificationFailedError", err)
	}
	if verr.Stage != 4 {
		t.Errorf("failed stage = %d, want 4", verr.Stage)
	}
	if len(verr.Roles) == 0 {
		t.Errorf("artifact snapshot is empty")
	}
}

func TestStageRunnerDetectsStoredConfigMismatch(t *testing.T) {
	exec := &countingExecutor{}
	r, store := newTestRunner(t, exec)
	cfg := testRunConfig()

	key, err := identity.DeriveKey(cfg)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	tampered := cfg.Clone()
	tampered.Seed = 7
	g := graphs.New()
	if err := g.AddNode(graphs.Node{ID: "n0"}); err != nil {
		t.Fatal(err)
	}
	if err := g.MarkStageComplete(1); err != nil {
		t.Fatal(err)
	}
	bundle := &results.ResultBundle{
		RunConfig: tampered,
		Graphs:    map[string]*graphs.Graph{graphs.RoleInputGraph: g},
	}
	if err := store.Save(key, bundle); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err = r.Run(context.Background(), cfg)
	var merr *verify.RunConfigMismatchError
	if !errors.As(err, &merr) {
		t.Fatalf("err = %v, want RunConfigMismatchError", err)
	}
}

func TestDedupeRuns(t *testing.T) {
	a := testRunConfig()
	b := a.Clone()
	b.UniqueID = "run-2" // volatile, same identity
	c := a.Clone()
	c.UniqueID = "run-3"
	c.Seed = 7 // distinct identity

	unique, err := DedupeRuns([]*config.RunConfig{a, b, c})
	if err != nil {
		t.Fatalf("DedupeRuns: %v", err)
	}
	if len(unique) != 2 {
		t.Fatalf("got %d unique runs, want 2", len(unique))
	}
	if unique[0] != a || unique[1] != c {
		t.Errorf("kept wrong configs: %v", unique)
	}
}

func TestExperimentRunnerDrivesAllRuns(t *testing.T) {
	exec := &countingExecutor{}
	r, _ := newTestRunner(t, exec)
	er := NewExperimentRunner(r, testLogger())

	exp := &config.ExperimentConfig{
		Name:       "smoke",
		GraphSizes: []config.GraphSizeSpec{{Size: 4, MaxGraphs: 2}},
		Algorithms: []config.Algorithm{{Name: "MDSA", MVal: 0}, {Name: "MDSA", MVal: 1}},
		Seeds:      []int{42},
		Simulators: []string{"nx"},
	}
	reports, err := er.RunExperiment(context.Background(), exp)
	if err != nil {
		t.Fatalf("RunExperiment: %v", err)
	}
	if len(reports) != 4 {
		t.Fatalf("got %d reports, want 4", len(reports))
	}
	if exec.generated != 4 {
		t.Errorf("generated %d graph sets, want 4", exec.generated)
	}
}
