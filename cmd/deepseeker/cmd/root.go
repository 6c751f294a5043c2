// Package cmd provides the CLI commands for deepseeker.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/deepseeker/deepseeker/internal/config"
	"github.com/deepseeker/deepseeker/internal/logging"
	"github.com/deepseeker/deepseeker/internal/store"
	"github.com/deepseeker/deepseeker/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the deepseeker CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deepseeker",
		Short:   "Local-first neural search over personal Markdown and PDF documentation",
		Version: version.Version,
		Long: `deepseeker indexes Markdown and PDF documentation into a local SQLite
store, combining BM25 keyword search with embedding-based similarity.

Everything runs locally: no document content leaves the machine except
to a local Ollama instance, if one is configured as the embedder.`,
	}
	cmd.SetVersionTemplate("deepseeker version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.deepseeker/logs/")
	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCleanupCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	} else {
		logCfg.WriteToStderr = false
	}
	logCfg.Component = cmd.Name()
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// projectRoot resolves the project root for path, falling back to path
// itself when no .git or .deepseeker.yaml marker is found.
func projectRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	root, err := config.FindProjectRoot(absPath)
	if err != nil {
		return absPath, nil
	}
	return root, nil
}

// dataDir returns, creating if necessary, the .deepseeker metadata
// directory under root.
func dataDir(root string) (string, error) {
	dir := filepath.Join(root, ".deepseeker")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// loadConfig loads config for root, falling back to defaults on error.
func loadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		slog.Warn("config_load_failed", slog.String("error", err.Error()))
		return config.NewConfig()
	}
	return cfg
}

// openStore opens the project's metadata store under dataDir.
func openStore(dir string) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(filepath.Join(dir, "metadata.db"))
}

// ensureCollection finds or creates the Collection rooted at folderPath.
func ensureCollection(ctx context.Context, s *store.SQLiteStore, folderPath string) (*store.Collection, error) {
	existing, err := s.GetCollectionByPath(ctx, folderPath)
	if err == nil && existing != nil {
		return existing, nil
	}
	c := &store.Collection{
		Name:       filepath.Base(folderPath),
		FolderPath: folderPath,
	}
	if err := s.SaveCollection(ctx, c); err != nil {
		return nil, fmt.Errorf("save collection for %s: %w", folderPath, err)
	}
	return c, nil
}
