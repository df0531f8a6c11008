package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "Foo.cs")

	require.NoError(t, WriteFileAtomic(path, []byte("class Foo {}\n")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "class Foo {}\n", string(got))

	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("class Bar {}\n")))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "class Bar {}\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "临时文件应被清理")
}

func TestUnifiedDiff(t *testing.T) {
	before := []byte("class Foo\n{\n    public int A { get; }\n}\n")
	after := []byte("class Foo\n{\n    public int A { get; }\n\n    public Foo(int A)\n}\n")

	diff, err := UnifiedDiff("src/Foo.cs", before, after)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a/src/Foo.cs")
	assert.Contains(t, diff, "+++ b/src/Foo.cs")
	assert.Contains(t, diff, "+    public Foo(int A)\n")

	empty, err := UnifiedDiff("src/Foo.cs", before, before)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
