package chunk

import (
	"context"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownChunker splits a Markdown document into header-aware text and
// code chunks via a single goldmark AST walk.
type MarkdownChunker struct{}

// NewMarkdownChunker returns a stateless Markdown chunker.
func NewMarkdownChunker() *MarkdownChunker {
	return &MarkdownChunker{}
}

// SupportedExtensions returns the file extensions this chunker handles.
func (c *MarkdownChunker) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Chunk splits Markdown source into an ordered sequence of Chunks.
func (c *MarkdownChunker) Chunk(ctx context.Context, source []byte) ([]Chunk, error) {
	if len(strings.TrimSpace(string(source))) == 0 {
		return nil, nil
	}

	// GFM (tables, strikethrough, task lists, autolinks) is registered so the
	// parser tolerates that syntax and routes it into prose text; none of it
	// is chunked specially.
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &mdWalker{
		src:        source,
		lineStarts: computeLineStarts(source),
	}
	_ = ast.Walk(doc, w.visit)
	w.flushText()

	return w.chunks, nil
}

type mdWalker struct {
	src        []byte
	lineStarts []int

	headerStack []string
	textBuf     strings.Builder
	textStart   int // byte offset where the pending text buffer began
	lastOffset  int // byte offset just past the last content appended to textBuf

	chunks []Chunk
}

func (w *mdWalker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.flushText()
			w.pushHeading(node.Level, headingText(node, w.src))
			return ast.WalkSkipChildren, nil
		}
	case *ast.FencedCodeBlock:
		if entering {
			w.flushText()
			lang := ""
			if l := node.Language(w.src); l != nil {
				lang = string(l)
			}
			w.emitCodeBlock(node.Lines(), lang)
			return ast.WalkSkipChildren, nil
		}
	case *ast.CodeBlock:
		if entering {
			w.flushText()
			w.emitCodeBlock(node.Lines(), "")
			return ast.WalkSkipChildren, nil
		}
	case *ast.Paragraph:
		if entering {
			w.separateParagraph()
		}
	case *ast.TextBlock:
		if entering {
			w.separateParagraph()
		}
	case *ast.CodeSpan:
		if entering {
			w.textBuf.WriteByte('`')
		} else {
			w.textBuf.WriteByte('`')
			w.checkMaxFlush()
		}
	case *ast.Text:
		if entering {
			seg := node.Segment
			w.textBuf.Write(seg.Value(w.src))
			w.lastOffset = seg.Stop
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.textBuf.WriteByte('\n')
			}
			w.checkMaxFlush()
		}
	}
	return ast.WalkContinue, nil
}

// pushHeading truncates the header stack to depth-1 and appends title. It
// only ever shrinks the stack, never pads it: a skipped level (H1 then H3)
// truncates to whatever ancestors already exist rather than inventing a
// placeholder entry for the missing H2.
func (w *mdWalker) pushHeading(depth int, title string) {
	if len(w.headerStack) > depth-1 {
		w.headerStack = w.headerStack[:depth-1]
	}
	w.headerStack = append(w.headerStack, title)
}

func (w *mdWalker) separateParagraph() {
	if w.textBuf.Len() > 0 && !strings.HasSuffix(w.textBuf.String(), "\n\n") {
		w.textBuf.WriteString("\n\n")
	}
}

func (w *mdWalker) checkMaxFlush() {
	if len(strings.TrimSpace(w.textBuf.String())) >= MaxChunkChars {
		w.flushText()
	}
}

// flushText emits the pending text buffer as a Chunk if it meets the
// minimum size floor, then resets the buffer. Short buffers are discarded
// as glue between structural elements.
func (w *mdWalker) flushText() {
	trimmed := strings.TrimSpace(w.textBuf.String())
	if len(trimmed) >= MinChunkChars {
		w.chunks = append(w.chunks, Chunk{
			Content:     trimmed,
			HeaderStack: cloneHeaderStack(w.headerStack),
			ChunkType:   TypeText,
			StartLine:   w.lineFor(w.textStart),
			EndLine:     w.lineFor(max(w.lastOffset-1, w.textStart)),
		})
	}
	w.textBuf.Reset()
	w.textStart = w.lastOffset
}

func (w *mdWalker) emitCodeBlock(lines *text.Segments, language string) {
	if lines.Len() == 0 {
		return
	}
	var buf strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(w.src))
	}
	content := strings.TrimRight(buf.String(), "\n")
	if content == "" {
		return
	}

	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	w.chunks = append(w.chunks, Chunk{
		Content:     content,
		HeaderStack: cloneHeaderStack(w.headerStack),
		ChunkType:   TypeCode,
		Language:    language,
		StartLine:   w.lineFor(first.Start),
		EndLine:     w.lineFor(last.Stop - 1),
	})
	w.lastOffset = last.Stop
	w.textStart = last.Stop
}

func (w *mdWalker) lineFor(offset int) int {
	if offset < 0 {
		offset = 0
	}
	idx := sort.Search(len(w.lineStarts), func(i int) bool { return w.lineStarts[i] > offset })
	if idx < 1 {
		idx = 1
	}
	return idx
}

func cloneHeaderStack(stack []string) []string {
	if len(stack) == 0 {
		return nil
	}
	out := make([]string, len(stack))
	copy(out, stack)
	return out
}

func computeLineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// headingText renders a heading's inline children as plain text, stripping
// emphasis/link/code-span markup down to their underlying characters.
func headingText(h *ast.Heading, src []byte) string {
	var buf strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		writeInlineText(&buf, c, src)
	}
	return buf.String()
}

func writeInlineText(buf *strings.Builder, n ast.Node, src []byte) {
	if t, ok := n.(*ast.Text); ok {
		buf.Write(t.Segment.Value(src))
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeInlineText(buf, c, src)
	}
}
