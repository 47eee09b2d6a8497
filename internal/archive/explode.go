package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Explode unpacks a zip archive into destDir for in-place patching.
func Explode(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fmt.Errorf("create exploded directory: %w", err)
	}

	for _, file := range reader.File {
		target, err := sanitizedJoin(destDir, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

// sanitizedJoin rejects entries escaping the destination root.
func sanitizedJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", file.Name, err)
	}
	return nil
}
