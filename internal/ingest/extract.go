package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepseeker/deepseeker/internal/chunk"
	dserrors "github.com/deepseeker/deepseeker/internal/errors"
	"github.com/deepseeker/deepseeker/internal/pdfdoc"
	"github.com/deepseeker/deepseeker/internal/store"
)

// extracted is the outcome of turning one file into chunks: the status the
// document row should carry, and the chunk list (without IDs yet assigned).
type extracted struct {
	status store.DocumentStatus
	chunks []*store.Chunk
}

// extractFile dispatches to the Markdown or PDF adapter based on extension.
func extractFile(ctx context.Context, path string, pdfExtractor pdfdoc.Extractor) (extracted, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return extractMarkdown(ctx, path)
	case ".pdf":
		return extractPDF(ctx, path, pdfExtractor)
	default:
		return extracted{}, dserrors.ExtractionError(fmt.Sprintf("unsupported extension: %s", path), nil)
	}
}

func extractMarkdown(ctx context.Context, path string) (extracted, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return extracted{}, dserrors.ExtractionError(fmt.Sprintf("read %s", path), err)
	}
	chunker := chunk.NewMarkdownChunker()
	parsed, err := chunker.Chunk(ctx, raw)
	if err != nil {
		return extracted{status: store.StatusError}, dserrors.ExtractionError(fmt.Sprintf("chunk %s", path), err)
	}
	return extracted{status: store.StatusNormal, chunks: toStoreChunks(parsed)}, nil
}

func extractPDF(ctx context.Context, path string, extractor pdfdoc.Extractor) (extracted, error) {
	if extractor == nil {
		extractor = pdfdoc.NewRawExtractor()
	}
	res, err := extractor.ExtractText(ctx, path)
	if err != nil {
		return extracted{status: store.StatusError}, dserrors.ExtractionError(fmt.Sprintf("extract %s", path), err)
	}
	switch res.Kind {
	case pdfdoc.KindScanned:
		return extracted{status: store.StatusScannedPDF}, nil
	case pdfdoc.KindError:
		return extracted{status: store.StatusError}, dserrors.ExtractionError(fmt.Sprintf("extract %s: %s", path, res.Message), nil)
	default:
		parsed := pdfdoc.ChunkText(res.Text)
		return extracted{status: store.StatusNormal, chunks: toStoreChunks(parsed)}, nil
	}
}

func toStoreChunks(parsed []chunk.Chunk) []*store.Chunk {
	out := make([]*store.Chunk, len(parsed))
	for i, c := range parsed {
		out[i] = &store.Chunk{
			Content:   c.Content,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Metadata: store.ChunkMetadata{
				HeaderStack: c.HeaderStack,
				ChunkType:   store.ChunkType(c.ChunkType),
				Language:    c.Language,
			},
		}
	}
	return out
}
