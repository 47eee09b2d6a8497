// Package store queries and addresses the local artifact store shared with
// the external build toolchain (maven-repository layout). The store is the
// single source of truth for the build cache: an artifact present at its
// assigned version means the build is already done.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
)

// Store addresses artifacts in a local repository rooted at root.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store. An empty root defaults to ~/.m2/repository, the
// location the external toolchain installs into.
func New(root string) *Store {
	if root == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			root = filepath.Join(home, ".m2", "repository")
		}
	}
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// ArtifactPath returns the canonical path of an artifact file in the store.
func (s *Store) ArtifactPath(groupID, artifactID, version, packaging string) string {
	groupPath := strings.ReplaceAll(groupID, ".", string(filepath.Separator))
	return filepath.Join(s.root, groupPath, artifactID, version,
		fmt.Sprintf("%s-%s.%s", artifactID, version, packaging))
}

// Exists answers the cache query: is the component already installed at the
// given version and packaging? Read-only; never mutates the store.
func (s *Store) Exists(dep *config.Dependency, version, packaging string) bool {
	path := s.ArtifactPath(dep.GroupID, dep.ArtifactID, version, packaging)
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// PublishLock returns the mutex serializing installs of one
// (artifact, version) pair. Sequential orchestration never contends on it;
// it is the required discipline before component builds run concurrently.
func (s *Store) PublishLock(artifactID, version string) *sync.Mutex {
	key := artifactID + "@" + version
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
