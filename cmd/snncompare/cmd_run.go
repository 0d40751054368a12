package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/logging"
	"github.com/jvdploeg/snncompare/internal/results"
	"github.com/jvdploeg/snncompare/internal/runner"
	"github.com/jvdploeg/snncompare/internal/simulation"
	"github.com/jvdploeg/snncompare/internal/stages"
	"github.com/jvdploeg/snncompare/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment from a config file",
		Long: `Run every stage of every run in an experiment config.

Stages that already completed in a previous invocation are skipped, so
the command is safe to re-run after an interruption.

Examples:
  snncompare run --config experiment.yaml
  snncompare run --config experiment.yaml --export-images
  snncompare run --config experiment.yaml --store sqlite --log-level debug
  snncompare run --config experiment.yaml --overwrite-sim-results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			logLevel, _ := cmd.Flags().GetString("log-level")
			backend, _ := cmd.Flags().GetString("store")
			configPath, _ := cmd.Flags().GetString("config")

			exp, err := config.LoadExperimentConfig(configPath)
			if err != nil {
				return err
			}
			applyRunOverrides(cmd, exp)

			store, err := openStore(root, backend)
			if err != nil {
				return err
			}
			defer store.Close()

			log := logging.NewLogger(logLevel, os.Stderr)
			events := logging.NewEventLogger(filepath.Join(root, results.DefaultResultsDir), logLevel)
			defer events.Close()

			oracle := &stages.Oracle{
				Root:        root,
				Extensions:  exp.Extensions(),
				SimDuration: simulation.SimDuration,
			}
			exec := &simulation.Executor{}
			if exp.ExportImages {
				exec.Viz = &visualization.Exporter{Root: root, Extensions: exp.Extensions()}
			}

			stageRunner := runner.NewStageRunner(store, oracle, exec, log)
			stageRunner.Events = events
			expRunner := runner.NewExperimentRunner(stageRunner, log)

			reports, err := expRunner.RunExperiment(context.Background(), exp)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(reports)
			}
			for _, r := range reports {
				fmt.Printf("%s  executed=%v skipped=%v\n", r.Key, r.Executed, r.Skipped)
			}
			fmt.Printf("%d runs completed\n", len(reports))
			return nil
		},
	}

	cmd.Flags().String("config", "", "Experiment config file (YAML)")
	cmd.MarkFlagRequired("config")
	cmd.Flags().Bool("export-images", false, "Export graph images during stage 3")
	cmd.Flags().StringSlice("export-type", nil, "Image types to export (png, pdf, dot); implies --export-images")
	cmd.Flags().Bool("show", false, "Mark exported runs for interactive display")
	cmd.Flags().Bool("overwrite-sim-results", false, "Re-run simulation and scoring even when completed")
	cmd.Flags().Bool("overwrite-visualisation", false, "Re-export images even when present")
	cmd.Flags().Int("graph-size", 0, "Restrict the sweep to a single graph size")
	cmd.Flags().Int("m-val", -1, "Restrict the sweep to a single m value")
	cmd.Flags().Int("redundancy", 0, "Restrict the sweep to a single adaptation redundancy")
	return cmd
}

// applyRunOverrides copies command-line overrides onto the loaded
// experiment config before expansion. Axis overrides narrow the sweep
// to the single given value.
func applyRunOverrides(cmd *cobra.Command, exp *config.ExperimentConfig) {
	if v, _ := cmd.Flags().GetBool("export-images"); v {
		exp.ExportImages = true
	}
	if v, _ := cmd.Flags().GetStringSlice("export-type"); len(v) > 0 {
		exp.ExportImages = true
		exp.ExportTypes = v
	}
	if v, _ := cmd.Flags().GetBool("show"); v {
		exp.ShowSNNs = true
	}
	if v, _ := cmd.Flags().GetBool("overwrite-sim-results"); v {
		exp.OverwriteSimResults = true
	}
	if v, _ := cmd.Flags().GetBool("overwrite-visualisation"); v {
		exp.OverwriteVisualisation = true
	}
	if v, _ := cmd.Flags().GetInt("graph-size"); v > 0 {
		exp.GraphSizes = []config.GraphSizeSpec{{Size: v, MaxGraphs: 1}}
	}
	if v, _ := cmd.Flags().GetInt("m-val"); v >= 0 {
		algos := make([]config.Algorithm, 0, len(exp.Algorithms))
		for _, a := range exp.Algorithms {
			a.MVal = v
			algos = append(algos, a)
		}
		exp.Algorithms = algos
	}
	if v, _ := cmd.Flags().GetInt("redundancy"); v > 0 {
		exp.Adaptations = []*config.Adaptation{{Redundancy: v}}
	}
}
