package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepseeker/deepseeker/internal/embed"
	"github.com/deepseeker/deepseeker/internal/ingest"
	"github.com/deepseeker/deepseeker/internal/output"
)

func newIndexCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Index a directory of Markdown and PDF documentation",
		Long: `Index scans a directory for Markdown and PDF files, chunks each
structurally, embeds the chunks, and writes them into the local store for
hybrid search.

Re-running index on a directory is incremental: unchanged files (by content
hash) are skipped entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, args[0], backend)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Embedding backend: ollama (default), static, or none")
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path, backend string) error {
	out := output.New(cmd.OutOrStdout())

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	root, err := projectRoot(absPath)
	if err != nil {
		return err
	}
	dir, err := dataDir(root)
	if err != nil {
		return err
	}
	cfg := loadConfig(root)

	metadata, err := openStore(dir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer func() { _ = metadata.Close() }()

	collection, err := ensureCollection(ctx, metadata, absPath)
	if err != nil {
		return err
	}

	provider := cfg.Embeddings.Provider
	if backend != "" {
		provider = backend
	}

	embedCtx, embedCancel := context.WithTimeout(ctx, 15*time.Second)
	embedder, err := embed.NewEmbedder(embedCtx, embed.ParseProvider(provider), cfg.Embeddings.Model)
	embedCancel()
	if err != nil {
		return fmt.Errorf("embedder initialization failed: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	pipeline := ingest.NewPipeline(metadata, embedder)
	if cfg.Embeddings.BatchSize > 0 {
		pipeline.BatchSize = cfg.Embeddings.BatchSize
	}

	out.Statusf("", "Indexing %s...", absPath)
	progress, err := pipeline.IndexDirectory(ctx, collection.ID, absPath)
	if err != nil {
		return fmt.Errorf("index directory: %w", err)
	}

	out.Successf("Indexed %d file(s), skipped %d unchanged, %d failed",
		progress.Processed, progress.Skipped, progress.Failed)
	for _, fe := range progress.Errors {
		out.Warningf("%s: %v", fe.Path, fe.Err)
	}
	return nil
}
