package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepseeker/deepseeker/internal/embed"
	"github.com/deepseeker/deepseeker/internal/ingest"
	"github.com/deepseeker/deepseeker/internal/output"
	"github.com/deepseeker/deepseeker/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and incrementally reindex on change",
		Long: `Watch indexes dir once, then keeps the store current as files are
created, modified, or removed, debouncing bursts of writes before
reindexing each file. Runs until interrupted (Ctrl+C).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0], backend)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Embedding backend: ollama (default), static, or none")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path, backend string) error {
	out := output.New(cmd.OutOrStdout())

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
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
		return fmt.Errorf("initial index: %w", err)
	}
	out.Successf("Indexed %d file(s), skipped %d unchanged, %d failed",
		progress.Processed, progress.Skipped, progress.Failed)

	fsw, err := watcher.NewFSWatcherWithWindow([]string{absPath}, cfg.DebounceWindow())
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = fsw.Stop() }()
	fsw.Start(ctx)

	out.Statusf("", "Watching %s for changes (debounce %s)...", absPath, cfg.DebounceWindow())

	for {
		select {
		case <-ctx.Done():
			out.Status("", "Stopping.")
			return nil
		case evt, ok := <-fsw.Events():
			if !ok {
				return nil
			}
			handleWatchEvent(ctx, pipeline, out, evt)
		}
	}
}

func handleWatchEvent(ctx context.Context, pipeline *ingest.Pipeline, out *output.Writer, evt watcher.FileEvent) {
	var err error
	switch evt.Operation {
	case watcher.OpRemove:
		err = pipeline.HandleFileRemoval(ctx, evt.Path)
	default:
		err = pipeline.UpdateFileIncremental(ctx, evt.Path)
	}
	if err != nil {
		slog.Warn("watch_update_failed", slog.String("path", evt.Path), slog.Any("err", err))
		out.Warningf("%s: %v", evt.Path, err)
		return
	}
	out.Statusf("", "Updated %s", evt.Path)
}
