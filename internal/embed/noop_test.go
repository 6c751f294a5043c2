package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopEmbedder_AlwaysUnavailable(t *testing.T) {
	e := NewNoopEmbedder()
	assert.False(t, e.Available(context.Background()))
	assert.Equal(t, 0, e.Dimensions())
	assert.Equal(t, "none", e.ModelName())
}

func TestNoopEmbedder_EmbedReturnsError(t *testing.T) {
	e := NewNoopEmbedder()

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestNoopEmbedder_CloseIsNoop(t *testing.T) {
	e := NewNoopEmbedder()
	assert.NoError(t, e.Close())
}
