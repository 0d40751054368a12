package main

import (
	"fmt"
	"os"

	"github.com/jvdploeg/snncompare/internal/results"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "snncompare",
		Short: "Compare spiking neural network adaptations of graph algorithms",
		Long: `snncompare runs radiation-robustness experiments on spiking neural
network implementations of distributed graph algorithms.

Each experiment expands into runs, and each run passes through four
stages: graph generation, simulation, visualization and scoring.
Completed stages are detected from persisted results, so interrupted
experiments resume where they left off.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Directory results and images are written under")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().String("store", "file", "Result store backend: file or sqlite")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newStatusCmd(),
		newCleanCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore builds the result store selected by the --store flag.
func openStore(root, backend string) (results.Store, error) {
	switch backend {
	case "file":
		return results.NewFileStore(root)
	case "sqlite":
		return results.NewSQLiteStore(root)
	}
	return nil, fmt.Errorf("unknown store backend: %q (must be file or sqlite)", backend)
}
