package archive

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Manifest holds the main-section attributes of a jar manifest.
type Manifest map[string]string

// ParseManifest reads the main section of a META-INF/MANIFEST.MF stream.
// Continuation lines (leading space) are folded into the previous attribute
// per the jar spec's 72-byte line wrapping.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := make(Manifest)
	scanner := bufio.NewScanner(r)
	var lastKey string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			// End of the main section; per-entry sections follow.
			break
		}
		if strings.HasPrefix(line, " ") {
			if lastKey != "" {
				m[lastKey] += strings.TrimPrefix(line, " ")
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed manifest line: %q", line)
		}
		lastKey = key
		m[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return m, nil
}

// ReadManifest extracts and parses META-INF/MANIFEST.MF from a zip archive
// (war, hpi or jar).
func ReadManifest(archivePath string) (Manifest, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "META-INF/MANIFEST.MF" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open manifest in %s: %w", archivePath, err)
		}
		defer rc.Close()
		return ParseManifest(rc)
	}
	return nil, fmt.Errorf("no META-INF/MANIFEST.MF in %s", archivePath)
}
