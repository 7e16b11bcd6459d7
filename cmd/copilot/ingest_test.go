package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "memos"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	for _, name := range []string{"a.md", "memos/b.txt", ".hidden", ".git/config"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	files, err := collectFiles(root)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "memos", "b.txt"),
	}, files)

	single, err := collectFiles(filepath.Join(root, "a.md"))
	require.NoError(t, err)
	require.Len(t, single, 1)

	_, err = collectFiles(filepath.Join(root, "missing"))
	require.Error(t, err)
}
