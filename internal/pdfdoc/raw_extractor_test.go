package pdfdoc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakePDF(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRawExtractor_ExtractsShowTextOperators(t *testing.T) {
	body := "%PDF-1.4\n1 0 obj << /Type /Page >> endobj\n" +
		"BT (Hello world this is a reasonably long line of extracted text) Tj ET\n"
	path := writeFakePDF(t, body)

	e := NewRawExtractor()
	res, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, res.Kind)
	assert.Contains(t, res.Text, "Hello world")
	assert.Equal(t, 1, res.PageCount)
}

func TestRawExtractor_NoTextIsScanned(t *testing.T) {
	body := "%PDF-1.4\n1 0 obj << /Type /Page >> endobj\n2 0 obj << /Type /Page >> endobj\n"
	path := writeFakePDF(t, body)

	e := NewRawExtractor()
	res, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, KindScanned, res.Kind)
	assert.Equal(t, 2, res.PageCount)
}

func TestRawExtractor_MissingFileIsError(t *testing.T) {
	e := NewRawExtractor()
	res, err := e.ExtractText(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
	assert.Equal(t, KindError, res.Kind)
}

func TestEstimatePageCount_ExcludesPagesTreeNode(t *testing.T) {
	raw := []byte("/Type /Pages /Kids [] \n/Type /Page\n/Type /Page\n/Type /Page")
	assert.Equal(t, 3, estimatePageCount(raw))
}
