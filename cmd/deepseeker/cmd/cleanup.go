package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepseeker/deepseeker/internal/output"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove index entries for documents no longer on disk",
		Long: `Cleanup scans every indexed document's path and deletes any whose
file no longer exists, cascading to their chunks and index entries. Useful
after moving or deleting files outside of a running watch session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCleanup(cmd)
		},
	}
	return cmd
}

func runCleanup(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	root, err := projectRoot(".")
	if err != nil {
		return err
	}
	dir, err := dataDir(root)
	if err != nil {
		return err
	}

	metadata, err := openStore(dir)
	if err != nil {
		return fmt.Errorf("no index found, run 'deepseeker index' first: %w", err)
	}
	defer func() { _ = metadata.Close() }()

	removed, err := metadata.CleanupGhost(cmd.Context(), func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	out.Successf("Removed %d ghost document(s)", removed)
	return nil
}
