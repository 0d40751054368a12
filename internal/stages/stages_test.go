package stages

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/graphs"
	"github.com/jvdploeg/snncompare/internal/identity"
	"github.com/jvdploeg/snncompare/internal/results"
)

func runConfig(adaptation *config.Adaptation, radiation *config.Radiation) *config.RunConfig {
	return &config.RunConfig{
		UniqueID:   "run-1",
		GraphSize:  3,
		Algorithm:  config.Algorithm{Name: "MDSA", MVal: 0},
		Adaptation: adaptation,
		Radiation:  radiation,
		Seed:       42,
		Simulator:  "nx",
	}
}

// bundleAt builds a bundle whose expected graphs all completed the given
// stages (and carry results when stage 4 is among them).
func bundleAt(t *testing.T, cfg *config.RunConfig, completed []int) *results.ResultBundle {
	t.Helper()
	bundle := &results.ResultBundle{
		RunConfig: cfg,
		Graphs:    make(map[string]*graphs.Graph),
	}
	for _, role := range ExpectedRoles(cfg) {
		g := graphs.New()
		if err := g.AddNode(graphs.Node{ID: "a"}); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		for _, stage := range completed {
			if err := g.MarkStageComplete(stage); err != nil {
				t.Fatalf("MarkStageComplete(%d): %v", stage, err)
			}
			if stage == 4 {
				g.Results = map[string]any{"score": 1.0}
			}
		}
		bundle.Graphs[role] = g
	}
	return bundle
}

func TestExpectedRolesWithoutAdaptationOrRadiation(t *testing.T) {
	got := ExpectedRoles(runConfig(nil, nil))
	want := []string{graphs.RoleInputGraph, graphs.RoleSNNAlgoGraph}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExpectedRoles() mismatch (-want +got):\n%s", diff)
	}
}

func TestExpectedRolesAllVariants(t *testing.T) {
	cfg := runConfig(
		&config.Adaptation{Redundancy: 1},
		&config.Radiation{NeuronDeathProbability: 0.1},
	)
	got := ExpectedRoles(cfg)
	want := []string{
		graphs.RoleInputGraph,
		graphs.RoleSNNAlgoGraph,
		graphs.RoleAdaptedSNNGraph,
		graphs.RoleRadSNNAlgoGraph,
		graphs.RoleRadAdaptedSNNGraph,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExpectedRoles() mismatch (-want +got):\n%s", diff)
	}
}

func TestExpectedRolesMonotonic(t *testing.T) {
	base := ExpectedRoles(runConfig(nil, nil))
	variants := []*config.RunConfig{
		runConfig(&config.Adaptation{Redundancy: 1}, nil),
		runConfig(nil, &config.Radiation{NeuronDeathProbability: 0.1}),
		runConfig(&config.Adaptation{Redundancy: 1}, &config.Radiation{NeuronDeathProbability: 0.1}),
	}
	for _, cfg := range variants {
		roles := make(map[string]bool)
		for _, r := range ExpectedRoles(cfg) {
			roles[r] = true
		}
		for _, r := range base {
			if !roles[r] {
				t.Errorf("enabling adaptation/radiation removed role %s", r)
			}
		}
	}
}

func TestExpectedStagesSkipsStageThree(t *testing.T) {
	tests := []struct {
		stage int
		want  []int
	}{
		{1, []int{1}},
		{2, []int{1, 2}},
		{3, []int{1, 2}},
		{4, []int{1, 2, 4}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ExpectedStages(tt.stage)); diff != "" {
			t.Errorf("ExpectedStages(%d) mismatch (-want +got):\n%s", tt.stage, diff)
		}
	}
}

func TestHasCompletedStageUnsupportedStage(t *testing.T) {
	o := &Oracle{}
	for _, stage := range []int{0, 5, -1} {
		_, err := o.HasCompletedStage(runConfig(nil, nil), stage, nil)
		var unsupported *UnsupportedStageError
		if !errors.As(err, &unsupported) {
			t.Errorf("HasCompletedStage(stage=%d) error = %v, want UnsupportedStageError", stage, err)
		}
	}
}

func TestHasCompletedStageRecordEvidence(t *testing.T) {
	cfg := runConfig(&config.Adaptation{Redundancy: 1}, nil)
	o := &Oracle{}

	tests := []struct {
		name      string
		completed []int
		stage     int
		want      bool
	}{
		{"nothing persisted", nil, 1, false},
		{"stage 1 recorded", []int{1}, 1, true},
		{"stage 2 not yet recorded", []int{1}, 2, false},
		{"stage 2 recorded", []int{1, 2}, 2, true},
		{"stage 4 recorded", []int{1, 2, 4}, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bundle *results.ResultBundle
			if tt.completed != nil {
				bundle = bundleAt(t, cfg, tt.completed)
			}
			got, err := o.HasCompletedStage(cfg, tt.stage, bundle)
			if err != nil {
				t.Fatalf("HasCompletedStage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasCompletedStage(stage=%d) = %v, want %v", tt.stage, got, tt.want)
			}
		})
	}
}

func TestHasCompletedStageMissingRoleIsIncomplete(t *testing.T) {
	cfg := runConfig(&config.Adaptation{Redundancy: 1}, nil)
	bundle := bundleAt(t, cfg, []int{1})
	delete(bundle.Graphs, graphs.RoleAdaptedSNNGraph)

	o := &Oracle{}
	got, err := o.HasCompletedStage(cfg, 1, bundle)
	if err != nil {
		t.Fatalf("HasCompletedStage() error = %v", err)
	}
	if got {
		t.Error("HasCompletedStage() = true with a missing expected role")
	}
}

func TestHasCompletedStageFourRequiresResults(t *testing.T) {
	cfg := runConfig(nil, nil)
	bundle := bundleAt(t, cfg, []int{1, 2, 4})
	bundle.Graphs[graphs.RoleSNNAlgoGraph].Results = nil

	o := &Oracle{}
	got, err := o.HasCompletedStage(cfg, 4, bundle)
	if err != nil {
		t.Fatalf("HasCompletedStage() error = %v", err)
	}
	if got {
		t.Error("HasCompletedStage(4) = true for a graph without results")
	}
}

func TestStageThreeWithoutExportFollowsStageTwo(t *testing.T) {
	cfg := runConfig(nil, nil)
	o := &Oracle{}

	got, err := o.HasCompletedStage(cfg, 3, bundleAt(t, cfg, []int{1}))
	if err != nil {
		t.Fatalf("HasCompletedStage(3) error = %v", err)
	}
	if got {
		t.Error("stage 3 complete before stage 2")
	}

	got, err = o.HasCompletedStage(cfg, 3, bundleAt(t, cfg, []int{1, 2}))
	if err != nil {
		t.Fatalf("HasCompletedStage(3) error = %v", err)
	}
	if !got {
		t.Error("stage 3 incomplete with export off and stage 2 done")
	}
}

func TestStageThreeChecksImageFilesOnDisk(t *testing.T) {
	root := t.TempDir()
	cfg := runConfig(nil, nil)
	cfg.ExportSNNs = true
	bundle := bundleAt(t, cfg, []int{1, 2})

	const duration = 2
	o := &Oracle{
		Root:       root,
		Extensions: []string{".png"},
		SimDuration: func(input *graphs.Graph, cfg *config.RunConfig) (int, error) {
			return duration, nil
		},
	}

	got, err := o.HasCompletedStage(cfg, 3, bundle)
	if err != nil {
		t.Fatalf("HasCompletedStage(3) error = %v", err)
	}
	if got {
		t.Error("stage 3 complete with no image files on disk")
	}

	key, err := identity.DeriveKey(cfg)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	paths := results.ExpectedImagePaths(root, ExpectedRoles(cfg), key, o.Extensions, duration)
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("img"), 0644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}

	got, err = o.HasCompletedStage(cfg, 3, bundle)
	if err != nil {
		t.Fatalf("HasCompletedStage(3) error = %v", err)
	}
	if !got {
		t.Error("stage 3 incomplete with all image files present")
	}

	// Image content is never validated: an empty file still counts.
	if err := os.WriteFile(paths[0], nil, 0644); err != nil {
		t.Fatalf("truncate image: %v", err)
	}
	got, err = o.HasCompletedStage(cfg, 3, bundle)
	if err != nil {
		t.Fatalf("HasCompletedStage(3) error = %v", err)
	}
	if !got {
		t.Error("stage 3 incomplete after truncating an image")
	}
}

func TestAssertRolesPresent(t *testing.T) {
	cfg := runConfig(&config.Adaptation{Redundancy: 1}, nil)
	bundle := bundleAt(t, cfg, []int{1})

	if err := AssertRolesPresent(cfg, 1, bundle); err != nil {
		t.Fatalf("AssertRolesPresent() error = %v, want nil", err)
	}

	delete(bundle.Graphs, graphs.RoleAdaptedSNNGraph)
	err := AssertRolesPresent(cfg, 1, bundle)
	var missing *MissingGraphError
	if !errors.As(err, &missing) {
		t.Fatalf("AssertRolesPresent() error = %v, want MissingGraphError", err)
	}
	if missing.Role != graphs.RoleAdaptedSNNGraph {
		t.Errorf("MissingGraphError.Role = %s, want %s", missing.Role, graphs.RoleAdaptedSNNGraph)
	}
	if len(missing.Present) != 2 {
		t.Errorf("MissingGraphError.Present = %v, want the two remaining roles", missing.Present)
	}
}
