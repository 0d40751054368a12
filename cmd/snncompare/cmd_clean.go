package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jvdploeg/snncompare/internal/results"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete all persisted results and exported images",
		Long: `Delete the results directory and the exported image tree under the
given root. The next run starts every stage from scratch.

Examples:
  snncompare clean
  snncompare clean --root /data/experiments --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			yes, _ := cmd.Flags().GetBool("yes")

			targets := []string{
				filepath.Join(root, results.DefaultResultsDir),
				// The image tree's top-level directory.
				filepath.Join(root, strings.Split(results.DefaultImageDir, "/")[0]),
			}

			if !yes {
				fmt.Printf("This deletes %s. Re-run with --yes to confirm.\n", strings.Join(targets, " and "))
				return nil
			}

			for _, dir := range targets {
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("remove %s: %w", dir, err)
				}
				fmt.Printf("removed %s\n", dir)
			}
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm deletion")
	return cmd
}
