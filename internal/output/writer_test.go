package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("*", "indexing complete")

	assert.Contains(t, buf.String(), "*")
	assert.Contains(t, buf.String(), "indexing complete")
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("", "plain line")

	assert.Equal(t, "  plain line\n", buf.String())
}

func TestWriter_Success_OmitsColorOnNonTTY(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("done")

	assert.NotContains(t, buf.String(), "\033[")
	assert.Contains(t, buf.String(), "done")
}

func TestWriter_Errorf_FormatsMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Errorf("failed on %s", "doc.md")

	assert.Contains(t, buf.String(), "failed on doc.md")
}

func TestWriter_Newline_WritesBlankLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}
