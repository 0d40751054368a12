package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jvdploeg/snncompare/internal/config"
	"github.com/jvdploeg/snncompare/internal/identity"
	"github.com/jvdploeg/snncompare/internal/results"
	"github.com/jvdploeg/snncompare/internal/runner"
	"github.com/jvdploeg/snncompare/internal/simulation"
	"github.com/jvdploeg/snncompare/internal/stages"
	"github.com/spf13/cobra"
)

// runStatus is the per-run report of the status command.
type runStatus struct {
	Key       string       `json:"key"`
	Completed map[int]bool `json:"completed_stages"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report stage completion for every run of an experiment",
		Long: `Report which pipeline stages completed for each run of an experiment
config, based on the persisted results.

Examples:
  snncompare status --config experiment.yaml
  snncompare status --config experiment.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			backend, _ := cmd.Flags().GetString("store")
			configPath, _ := cmd.Flags().GetString("config")

			exp, err := config.LoadExperimentConfig(configPath)
			if err != nil {
				return err
			}
			runs, err := exp.Expand()
			if err != nil {
				return err
			}
			unique, err := runner.DedupeRuns(runs)
			if err != nil {
				return err
			}

			store, err := openStore(root, backend)
			if err != nil {
				return err
			}
			defer store.Close()

			oracle := &stages.Oracle{
				Root:        root,
				Extensions:  exp.Extensions(),
				SimDuration: simulation.SimDuration,
			}

			statuses := make([]runStatus, 0, len(unique))
			for _, cfg := range unique {
				key, err := identity.DeriveKey(cfg)
				if err != nil {
					return err
				}
				bundle, err := store.Load(key)
				if err != nil && !errors.Is(err, results.ErrNotFound) {
					return err
				}

				status := runStatus{Key: key, Completed: make(map[int]bool)}
				for stage := stages.FirstStage; stage <= stages.LastStage; stage++ {
					done, err := oracle.HasCompletedStage(cfg, stage, bundle)
					if err != nil {
						return err
					}
					status.Completed[stage] = done
				}
				statuses = append(statuses, status)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(statuses)
			}
			for _, s := range statuses {
				fmt.Printf("%s  ", s.Key)
				for stage := stages.FirstStage; stage <= stages.LastStage; stage++ {
					mark := "-"
					if s.Completed[stage] {
						mark = fmt.Sprintf("%d", stage)
					}
					fmt.Print(mark)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().String("config", "", "Experiment config file (YAML)")
	cmd.MarkFlagRequired("config")
	return cmd
}
