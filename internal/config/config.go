// Package config defines the experiment and run configuration schema for
// snncompare. Experiment configs are loaded from YAML files and expanded
// into the cartesian product of run configurations; run configs are
// validated once at construction and immutable afterwards.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Algorithm identifies the graph algorithm under test and its parameters.
type Algorithm struct {
	// Name is the algorithm identifier. Only "MDSA" is supported.
	Name string `json:"name" yaml:"name"`

	// MVal is the number of approximation iterations of the MDSA algorithm.
	MVal int `json:"m_val" yaml:"m_val"`
}

// Adaptation configures the radiation-hardening adaptation of the SNN.
type Adaptation struct {
	// Redundancy is the number of redundant neurons per functional neuron.
	Redundancy int `json:"redundancy" yaml:"redundancy"`
}

// Radiation configures simulated radiation effects on the SNN.
type Radiation struct {
	// NeuronDeathProbability is the per-neuron probability of permanent
	// failure, applied once with the run seed before simulation.
	NeuronDeathProbability float64 `json:"neuron_death_probability" yaml:"neuron_death_probability"`
}

// RunConfig is one concrete parameter combination within an experiment
// sweep. It is constructed by ExperimentConfig.Expand and must not be
// mutated afterwards.
type RunConfig struct {
	// UniqueID tags the run for traceability. It is volatile: it never
	// participates in identity or equality checks.
	UniqueID string `json:"unique_id" yaml:"unique_id"`

	// GraphSize is the number of nodes in the input graph.
	GraphSize int `json:"graph_size" yaml:"graph_size"`

	// GraphNr distinguishes multiple input graphs of the same size.
	GraphNr int `json:"graph_nr" yaml:"graph_nr"`

	// Algorithm is the algorithm under test.
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm"`

	// Adaptation is nil when the run executes without adaptation.
	Adaptation *Adaptation `json:"adaptation" yaml:"adaptation"`

	// Radiation is nil when the run executes without radiation.
	Radiation *Radiation `json:"radiation" yaml:"radiation"`

	// Seed drives all pseudo-random choices of the run.
	Seed int `json:"seed" yaml:"seed"`

	// Simulator selects the SNN simulation backend.
	Simulator string `json:"simulator" yaml:"simulator"`

	// Volatile export/overwrite flags. Excluded from identity and from
	// cache equality, but still compared by the consistency verifier.
	OverwriteSimResults    bool `json:"overwrite_sim_results" yaml:"overwrite_sim_results"`
	OverwriteVisualisation bool `json:"overwrite_visualisation" yaml:"overwrite_visualisation"`
	ShowSNNs               bool `json:"show_snns" yaml:"show_snns"`
	ExportSNNs             bool `json:"export_snns" yaml:"export_snns"`
}

// VolatileFields are the RunConfig fields excluded from identity
// derivation, named by their serialized keys.
var VolatileFields = []string{
	"unique_id",
	"overwrite_sim_results",
	"overwrite_visualisation",
	"show_snns",
	"export_snns",
}

// HasAdaptation reports whether the run uses the hardening adaptation.
func (c *RunConfig) HasAdaptation() bool {
	return c.Adaptation != nil
}

// HasRadiation reports whether the run simulates radiation effects.
func (c *RunConfig) HasRadiation() bool {
	return c.Radiation != nil
}

// Clone returns a deep copy of the run config.
func (c *RunConfig) Clone() *RunConfig {
	out := *c
	if c.Adaptation != nil {
		a := *c.Adaptation
		out.Adaptation = &a
	}
	if c.Radiation != nil {
		r := *c.Radiation
		out.Radiation = &r
	}
	return &out
}

// Normalized returns a deep copy with the overwrite/show/export flags
// cleared. Persisted results carry the normalized config: the flags
// only steer a single invocation and are meaningless in storage.
func (c *RunConfig) Normalized() *RunConfig {
	out := c.Clone()
	out.OverwriteSimResults = false
	out.OverwriteVisualisation = false
	out.ShowSNNs = false
	out.ExportSNNs = false
	return out
}

// Validate checks the run config schema once, so downstream code can rely
// on field invariants instead of re-checking them at each access site.
func (c *RunConfig) Validate() error {
	if c.GraphSize < 3 {
		return fmt.Errorf("graph_size must be at least 3, got %d", c.GraphSize)
	}
	if c.GraphNr < 0 {
		return fmt.Errorf("graph_nr must be non-negative, got %d", c.GraphNr)
	}
	if c.Algorithm.Name != "MDSA" {
		return fmt.Errorf("unsupported algorithm: %q", c.Algorithm.Name)
	}
	if c.Algorithm.MVal < 0 {
		return fmt.Errorf("m_val must be non-negative, got %d", c.Algorithm.MVal)
	}
	if c.Adaptation != nil && c.Adaptation.Redundancy < 1 {
		return fmt.Errorf("adaptation redundancy must be at least 1, got %d", c.Adaptation.Redundancy)
	}
	if c.Radiation != nil {
		p := c.Radiation.NeuronDeathProbability
		if p <= 0 || p > 1 {
			return fmt.Errorf("neuron_death_probability must be in (0, 1], got %v", p)
		}
	}
	if c.Simulator != "nx" && c.Simulator != "simsnn" {
		return fmt.Errorf("unsupported simulator: %q", c.Simulator)
	}
	return nil
}

// GraphSizeSpec pairs an input graph size with the number of distinct
// graphs to generate at that size.
type GraphSizeSpec struct {
	Size      int `json:"size" yaml:"size"`
	MaxGraphs int `json:"max_graphs" yaml:"max_graphs"`
}

// ExperimentConfig describes a full parameter sweep. Each list field is
// one axis of the cartesian expansion.
type ExperimentConfig struct {
	Name string `json:"name" yaml:"name"`

	GraphSizes []GraphSizeSpec `json:"graph_sizes" yaml:"graph_sizes"`
	Algorithms []Algorithm     `json:"algorithms" yaml:"algorithms"`

	// Adaptations and Radiations may contain nil entries, meaning the
	// axis value "disabled". An empty list is treated as [nil].
	Adaptations []*Adaptation `json:"adaptations" yaml:"adaptations"`
	Radiations  []*Radiation  `json:"radiations" yaml:"radiations"`

	Seeds      []int    `json:"seeds" yaml:"seeds"`
	Simulators []string `json:"simulators" yaml:"simulators"`

	// Export settings, copied onto every expanded run config.
	ExportImages bool     `json:"export_images" yaml:"export_images"`
	ExportTypes  []string `json:"export_types" yaml:"export_types"`

	OverwriteSimResults    bool `json:"overwrite_sim_results" yaml:"overwrite_sim_results"`
	OverwriteVisualisation bool `json:"overwrite_visualisation" yaml:"overwrite_visualisation"`
	ShowSNNs               bool `json:"show_snns" yaml:"show_snns"`
}

// LoadExperimentConfig reads and validates an experiment config from a
// YAML file.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment config: %w", err)
	}
	var cfg ExperimentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse experiment config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the sweep axes are non-empty and well-formed.
func (e *ExperimentConfig) Validate() error {
	if len(e.GraphSizes) == 0 {
		return fmt.Errorf("graph_sizes must not be empty")
	}
	for _, gs := range e.GraphSizes {
		if gs.Size < 3 {
			return fmt.Errorf("graph size must be at least 3, got %d", gs.Size)
		}
		if gs.MaxGraphs < 1 {
			return fmt.Errorf("max_graphs must be at least 1, got %d", gs.MaxGraphs)
		}
	}
	if len(e.Algorithms) == 0 {
		return fmt.Errorf("algorithms must not be empty")
	}
	if len(e.Seeds) == 0 {
		return fmt.Errorf("seeds must not be empty")
	}
	if len(e.Simulators) == 0 {
		return fmt.Errorf("simulators must not be empty")
	}
	for _, ext := range e.ExportTypes {
		if ext != "png" && ext != "pdf" && ext != "dot" {
			return fmt.Errorf("unsupported export type: %q", ext)
		}
	}
	return nil
}

// Expand computes the cartesian product of the sweep axes and returns one
// validated RunConfig per combination, each tagged with a fresh unique ID.
func (e *ExperimentConfig) Expand() ([]*RunConfig, error) {
	adaptations := e.Adaptations
	if len(adaptations) == 0 {
		adaptations = []*Adaptation{nil}
	}
	radiations := e.Radiations
	if len(radiations) == 0 {
		radiations = []*Radiation{nil}
	}

	var runs []*RunConfig
	for _, gs := range e.GraphSizes {
		for graphNr := 0; graphNr < gs.MaxGraphs; graphNr++ {
			for _, algo := range e.Algorithms {
				for _, adaptation := range adaptations {
					for _, radiation := range radiations {
						for _, seed := range e.Seeds {
							for _, sim := range e.Simulators {
								run := &RunConfig{
									UniqueID:               uuid.NewString(),
									GraphSize:              gs.Size,
									GraphNr:                graphNr,
									Algorithm:              algo,
									Adaptation:             adaptation,
									Radiation:              radiation,
									Seed:                   seed,
									Simulator:              sim,
									OverwriteSimResults:    e.OverwriteSimResults,
									OverwriteVisualisation: e.OverwriteVisualisation,
									ShowSNNs:               e.ShowSNNs,
									ExportSNNs:             e.ExportImages,
								}
								if err := run.Validate(); err != nil {
									return nil, fmt.Errorf("expand experiment %q: %w", e.Name, err)
								}
								runs = append(runs, run)
							}
						}
					}
				}
			}
		}
	}
	return runs, nil
}

// Extensions returns the image file extensions requested for export,
// with a leading dot. Defaults to .png when export is on but no types
// were specified.
func (e *ExperimentConfig) Extensions() []string {
	if !e.ExportImages {
		return nil
	}
	if len(e.ExportTypes) == 0 {
		return []string{".png"}
	}
	exts := make([]string, 0, len(e.ExportTypes))
	for _, t := range e.ExportTypes {
		exts = append(exts, "."+t)
	}
	return exts
}
