package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/deepseeker/deepseeker/internal/errors"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses Ollama API for embeddings (default, cross-platform)
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings (fallback when Ollama is unavailable)
	ProviderStatic ProviderType = "static"

	// ProviderNone disables vector embedding entirely; search runs BM25-only.
	ProviderNone ProviderType = "none"
)

// NewEmbedder creates an embedder based on provider type.
// The DEEPSEEKER_EMBEDDER environment variable can override the provider:
//   - "ollama": Use OllamaEmbedder (default, cross-platform)
//   - "static": Use StaticEmbedder (no network, deterministic)
//
// Query embedding caching is enabled by default. Set DEEPSEEKER_EMBED_CACHE=false
// to disable it.
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	var embedder Embedder
	var err error

	envProvider := os.Getenv("DEEPSEEKER_EMBEDDER")
	if envProvider != "" {
		switch strings.ToLower(envProvider) {
		case "ollama":
			embedder, err = newOllamaWithFallback(ctx, model)
		case "static":
			embedder, err = NewStaticEmbedder(), nil
		case "none":
			embedder, err = NewNoopEmbedder(), nil
		}
	}

	if embedder == nil && err == nil {
		switch provider {
		case ProviderOllama:
			embedder, err = newOllamaWithFallback(ctx, model)

		case ProviderStatic:
			embedder, err = NewStaticEmbedder(), nil

		case ProviderNone:
			embedder, err = NewNoopEmbedder(), nil

		default:
			embedder, err = newOllamaWithFallback(ctx, model)
		}
	}

	if _, isNoop := embedder.(*NoopEmbedder); isNoop {
		// The cache layer and model-directory lock serve nothing when there's
		// no model to query; return the noop embedder directly.
		return embedder, err
	}

	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}

	return embedder, nil
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("DEEPSEEKER_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// newOllamaWithFallback creates an Ollama embedder, applying environment
// overrides. Returns an error if Ollama is unreachable; callers that want a
// degraded mode should pass ProviderStatic explicitly.
func newOllamaWithFallback(ctx context.Context, model string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" && isOllamaModelName(model) {
		cfg.Model = model
	}

	if host := os.Getenv("DEEPSEEKER_OLLAMA_HOST"); host != "" {
		cfg.Host = host
	}
	if modelOverride := os.Getenv("DEEPSEEKER_OLLAMA_MODEL"); modelOverride != "" {
		cfg.Model = modelOverride
	}
	if timeoutStr := os.Getenv("DEEPSEEKER_OLLAMA_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	if dir, dirErr := ModelDir(cfg.Model); dirErr == nil {
		lock := NewModelLock(dir)
		if lockErr := lock.Lock(); lockErr == nil {
			defer lock.Unlock()
		} else {
			slog.Warn("model_lock_failed", slog.String("model", cfg.Model), slog.Any("err", lockErr))
		}
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, errors.EmbeddingError(
			fmt.Sprintf("ollama unavailable: %v\n\nTo fix:\n  1. Start Ollama: ollama serve\n  2. Or use the static embedder: deepseeker index --backend=static", err),
			err,
		)
	}
	return embedder, nil
}

// ParseProvider converts a string to ProviderType.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "static":
		return ProviderStatic
	case "none":
		return ProviderNone
	case "ollama":
		return ProviderOllama
	default:
		return ProviderOllama
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// isOllamaModelName checks if a model name looks like an Ollama model.
// Ollama models carry a ":" tag (e.g. "nomic-embed-text:latest").
func isOllamaModelName(model string) bool {
	return strings.Contains(model, ":")
}

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic), string(ProviderNone)}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo contains information about an embedder.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder, unwrapping the cache layer.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.inner
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}

	return info
}

// MustNewEmbedder creates an embedder and panics on failure.
// Use only in tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
