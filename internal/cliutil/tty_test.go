package cliutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTTY_FalseForBuffer(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestIsTTY_FalseForNil(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestNoColorRequested_RespectsEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.True(t, NoColorRequested())
}

func TestNoColorRequested_FalseWhenUnset(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	assert.False(t, NoColorRequested())
}

func TestUseColor_FalseForNonTTY(t *testing.T) {
	assert.False(t, UseColor(&bytes.Buffer{}))
}
