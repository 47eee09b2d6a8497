package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
)

// Manager handles the temporary build workspace. The workspace root is the
// configured tmp directory; component build directories live under
// root/build/<component>.
type Manager struct {
	root string
}

// NewManager creates a workspace manager rooted at tmpDir. An empty tmpDir
// falls back to a directory under the system temp root.
func NewManager(tmpDir string) *Manager {
	if tmpDir == "" {
		tmpDir = filepath.Join(os.TempDir(), "bundlepacker")
	}
	return &Manager{root: tmpDir}
}

// Create wipes any previous workspace and creates a fresh build root.
// A rerun always starts clean; the artifact store, not the workspace,
// carries state between runs.
func (m *Manager) Create() error {
	if _, err := os.Stat(m.root); err == nil {
		slog.Info("Cleaning up the temporary directory", logfields.Path(m.root))
		if err := os.RemoveAll(m.root); err != nil {
			return fmt.Errorf("failed to remove previous workspace: %w", err)
		}
	}
	if err := os.MkdirAll(m.BuildRoot(), 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	slog.Info("Created workspace", logfields.Path(m.root))
	return nil
}

// Root returns the workspace root directory.
func (m *Manager) Root() string { return m.root }

// BuildRoot returns the directory holding per-component build directories.
func (m *Manager) BuildRoot() string { return filepath.Join(m.root, "build") }

// ComponentDir creates and returns the build directory for a component.
func (m *Manager) ComponentDir(id string) (string, error) {
	dir := filepath.Join(m.BuildRoot(), id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create component directory: %w", err)
	}
	return dir, nil
}

// Subdir creates and returns a named subdirectory of the workspace root.
func (m *Manager) Subdir(name string) (string, error) {
	dir := filepath.Join(m.root, name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return dir, nil
}

// Cleanup removes the workspace directory.
func (m *Manager) Cleanup() error {
	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Info("Cleaned up workspace", logfields.Path(m.root))
	return nil
}
