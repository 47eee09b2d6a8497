package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyTreeRecursive(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub", "deep"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "deep", "leaf.txt"), []byte("leaf"), 0o640))

	require.NoError(t, CopyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "sub", "deep", "leaf.txt"))
	require.NoError(t, err)
	require.Equal(t, "leaf", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	require.Equal(t, "top", string(data))
}

func TestCopyTreeSingleFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "file.jar")
	dst := filepath.Join(t.TempDir(), "nested", "copy.jar")
	require.NoError(t, os.WriteFile(src, []byte("jar-bytes"), 0o640))

	require.NoError(t, CopyTree(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "jar-bytes", string(data))
}

func TestCopyTreeSymlink(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	require.NoError(t, os.WriteFile(filepath.Join(src, "target.txt"), []byte("data"), 0o640))
	require.NoError(t, os.Symlink("target.txt", filepath.Join(src, "link.txt")))

	require.NoError(t, CopyTree(src, dst))

	info, err := os.Lstat(filepath.Join(dst, "link.txt"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeSymlink, "symlinks must be copied as symlinks")

	data, err := os.ReadFile(filepath.Join(dst, "link.txt"))
	require.NoError(t, err)
	require.Equal(t, "data", string(data))
}

func TestCopyTreePermissionBitsOnly(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(filepath.Join(src, "script.sh"), []byte("#!/bin/sh\n"), 0o750))

	require.NoError(t, CopyTree(src, dst))

	srcInfo, err := os.Stat(filepath.Join(src, "script.sh"))
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dst, "script.sh"))
	require.NoError(t, err)
	require.Equal(t, srcInfo.Mode().Perm(), info.Mode().Perm())
	require.Zero(t, info.Mode()&os.ModeType)
}

func TestCopyTreeMissingSource(t *testing.T) {
	err := CopyTree(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.Error(t, err)
}
