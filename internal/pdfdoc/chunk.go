package pdfdoc

import (
	"regexp"
	"strings"

	"github.com/deepseeker/deepseeker/internal/chunk"
)

// minParagraphChars is the floor below which a paragraph is dropped as
// noise rather than emitted as its own chunk.
const minParagraphChars = 20

var blankLineSplit = regexp.MustCompile(`\n\s*\n`)

// ChunkText splits extracted PDF text into chunks on blank-line paragraph
// boundaries. Paragraphs shorter than minParagraphChars are dropped. If no
// paragraph survives, the whole text is emitted as a single chunk.
// start_line/end_line record paragraph index, not a true line mapping —
// PDF text extraction has no stable notion of source lines.
func ChunkText(text string) []chunk.Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	paragraphs := blankLineSplit.Split(trimmed, -1)
	var chunks []chunk.Chunk
	idx := 0
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if len(p) < minParagraphChars {
			continue
		}
		idx++
		chunks = append(chunks, chunk.Chunk{
			Content:   p,
			ChunkType: chunk.TypePDF,
			StartLine: idx,
			EndLine:   idx,
		})
	}

	if len(chunks) == 0 {
		return []chunk.Chunk{{
			Content:   trimmed,
			ChunkType: chunk.TypePDF,
			StartLine: 1,
			EndLine:   1,
		}}
	}
	return chunks
}
