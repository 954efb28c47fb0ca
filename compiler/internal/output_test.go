package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.j")
	require.Nil(t, WriteOutput(path, "first\n"))
	require.Nil(t, WriteOutput(path, "second\n"))
	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "second\n", string(data))
	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteOutputError(t *testing.T) {
	err := WriteOutput(filepath.Join(t.TempDir(), "missing", "Foo.j"), "code")
	requireErrorKind(t, err, OutputErrorKind)
}
