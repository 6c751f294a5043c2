package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepseeker/deepseeker/internal/embed"
	"github.com/deepseeker/deepseeker/internal/output"
	"github.com/deepseeker/deepseeker/internal/retrieve"
)

func newSearchCmd() *cobra.Command {
	var (
		limit      int
		collection string
		format     string
		backend    string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documentation",
		Long: `Search combines BM25 keyword ranking with cosine similarity over
embedded chunks, weighting vector score 0.7 and BM25 score 0.3.

If no embedder is available, search degrades gracefully to BM25-only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), limit, collection, format, backend)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Restrict search to the collection rooted at this path")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&backend, "backend", "", "Embedding backend: ollama (default), static, or none")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, limit int, collection, format, backend string) error {
	out := output.New(cmd.OutOrStdout())

	root, err := projectRoot(".")
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
		return fmt.Errorf("no index found, run 'deepseeker index' first: %w", err)
	}
	defer func() { _ = metadata.Close() }()

	var collectionID int64
	hasFilter := collection != ""
	if hasFilter {
		c, err := ensureCollection(ctx, metadata, collection)
		if err != nil {
			return err
		}
		collectionID = c.ID
	}

	provider := cfg.Embeddings.Provider
	if backend != "" {
		provider = backend
	}
	embedCtx, embedCancel := context.WithTimeout(ctx, 15*time.Second)
	embedder, embedErr := embed.NewEmbedder(embedCtx, embed.ParseProvider(provider), cfg.Embeddings.Model)
	embedCancel()
	if embedErr != nil {
		out.Warningf("embedder unavailable, falling back to BM25-only: %v", embedErr)
		embedder = embed.NewNoopEmbedder()
	}
	defer func() { _ = embedder.Close() }()

	retriever := retrieve.NewRetriever(metadata, embedder)
	results, err := retriever.Search(ctx, query, collectionID, hasFilter, limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results for %q", query))
		return nil
	}

	out.Statusf("", "Found %d result(s) for %q:", len(results), query)
	out.Newline()
	for i, r := range results {
		location := r.DocumentPath
		if r.StartLine > 0 {
			location = fmt.Sprintf("%s:%d", r.DocumentPath, r.StartLine)
		}
		out.Statusf("", "%d. %s (score: %.3f)", i+1, location, r.Score)
		for _, line := range snippet(r.Content, 3) {
			out.Status("", "   "+line)
		}
		out.Newline()
	}
	return nil
}

func snippet(content string, n int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
