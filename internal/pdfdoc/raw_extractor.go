package pdfdoc

import (
	"bytes"
	"context"
	"os"
	"strings"
)

// minCharsPerPage is the average extracted-chars-per-page floor below which
// a PDF is classified as scanned (no usable text layer).
const minCharsPerPage = 50

// RawExtractor is a minimal pure-Go PDF text extractor. It estimates page
// count by counting "/Type /Page" object dictionaries (excluding the
// "/Type /Pages" tree nodes) and recovers a best-effort text layer by
// scanning parenthesized strings and Tj/TJ show-text operators in the raw
// byte stream. It does not decompress FlateDecode content streams, so it
// only sees text that appears uncompressed in the file — a deliberately
// weak fallback, not a substitute for a real PDF text-extraction library.
type RawExtractor struct{}

// NewRawExtractor returns the default built-in extractor.
func NewRawExtractor() *RawExtractor {
	return &RawExtractor{}
}

func (e *RawExtractor) ExtractText(_ context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ErrorResult(err.Error()), err
	}

	pageCount := estimatePageCount(raw)
	text := strings.TrimSpace(extractTextOperators(raw))

	if text == "" {
		return ScannedResult(pageCount), nil
	}
	if pageCount > 0 && len(text)/pageCount < minCharsPerPage {
		return ScannedResult(pageCount), nil
	}
	return SuccessResult(text, pageCount), nil
}

func estimatePageCount(raw []byte) int {
	pageObjs := bytes.Count(raw, []byte("/Type /Page")) + bytes.Count(raw, []byte("/Type/Page"))
	pagesNodes := bytes.Count(raw, []byte("/Type /Pages")) + bytes.Count(raw, []byte("/Type/Pages"))
	count := pageObjs - pagesNodes
	if count < 0 {
		count = 0
	}
	return count
}

// extractTextOperators scans for PDF content-stream string literals and
// concatenates the text drawn by Tj and TJ operators. It handles simple
// escape sequences (\(, \), \\) but does not interpret hex strings or
// decode compressed streams.
func extractTextOperators(raw []byte) string {
	var out strings.Builder
	i := 0
	n := len(raw)
	for i < n {
		if raw[i] != '(' {
			i++
			continue
		}
		start := i + 1
		depth := 1
		j := start
		for j < n && depth > 0 {
			switch raw[j] {
			case '\\':
				j++ // skip escaped char
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					goto literalDone
				}
			}
			j++
		}
	literalDone:
		if j >= n {
			break
		}
		literal := raw[start:j]
		rest := skipSpace(raw, j+1)
		if followsShowOperator(raw, rest) {
			out.Write(unescapePDFString(literal))
			if peekOperatorIsTJ(raw, rest) {
				out.WriteByte(' ')
			} else {
				out.WriteByte('\n')
			}
		}
		i = j + 1
	}
	return out.String()
}

func skipSpace(raw []byte, i int) int {
	for i < len(raw) && (raw[i] == ' ' || raw[i] == '\n' || raw[i] == '\r' || raw[i] == '\t') {
		i++
	}
	return i
}

func followsShowOperator(raw []byte, at int) bool {
	return hasPrefixAt(raw, at, "Tj") || hasPrefixAt(raw, at, "TJ") ||
		hasArrayThenTJ(raw, at)
}

func peekOperatorIsTJ(raw []byte, at int) bool {
	return hasPrefixAt(raw, at, "TJ") || hasArrayThenTJ(raw, at)
}

func hasArrayThenTJ(raw []byte, at int) bool {
	// literal is inside a `[ (..) ... ] TJ` array; look ahead past ']' for "TJ".
	i := at
	for i < len(raw) && raw[i] != ']' && i < at+200 {
		i++
	}
	if i >= len(raw) || raw[i] != ']' {
		return false
	}
	return hasPrefixAt(raw, skipSpace(raw, i+1), "TJ")
}

func hasPrefixAt(raw []byte, at int, prefix string) bool {
	end := at + len(prefix)
	if end > len(raw) {
		return false
	}
	return string(raw[at:end]) == prefix
}

func unescapePDFString(lit []byte) []byte {
	out := make([]byte, 0, len(lit))
	for i := 0; i < len(lit); i++ {
		if lit[i] == '\\' && i+1 < len(lit) {
			switch lit[i+1] {
			case 'n':
				out = append(out, '\n')
				i++
				continue
			case 'r':
				out = append(out, '\r')
				i++
				continue
			case 't':
				out = append(out, '\t')
				i++
				continue
			case '(', ')', '\\':
				out = append(out, lit[i+1])
				i++
				continue
			}
		}
		out = append(out, lit[i])
	}
	return out
}
