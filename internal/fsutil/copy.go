// Package fsutil contains helpers for copying file trees between workspaces.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyTree copies the source into the destination. If source is a directory
// it is copied recursively, preserving file modes. Destination directories
// are created as needed.
func CopyTree(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", source, err)
	}

	if !info.IsDir() {
		if err := os.MkdirAll(filepath.Dir(destination), 0o750); err != nil {
			return fmt.Errorf("create destination directory for %s: %w", destination, err)
		}
		return copyFile(source, info, destination)
	}

	return copyDirectory(source, destination)
}

func copyDirectory(source, destination string) error {
	return filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(source, path)
		if err != nil {
			return fmt.Errorf("determine relative path to %s: %w", path, err)
		}

		outputPath := filepath.Join(destination, relativePath)
		if info.IsDir() {
			if err := os.MkdirAll(outputPath, info.Mode().Perm()); err != nil {
				return fmt.Errorf("create directory %s: %w", outputPath, err)
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return copySymlink(path, outputPath)
		}

		return copyFile(path, info, outputPath)
	})
}

func copySymlink(source, destination string) error {
	target, err := os.Readlink(source)
	if err != nil {
		return fmt.Errorf("read symlink %s: %w", source, err)
	}
	if err := os.Symlink(target, destination); err != nil {
		return fmt.Errorf("create symlink %s: %w", destination, err)
	}
	return nil
}

func copyFile(source string, info os.FileInfo, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer in.Close()

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("open %s: %w", destination, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", source, destination, err)
	}

	return nil
}
