package builder

import (
	"fmt"
	"sync"
)

// OverrideMap is the shared version-override accumulator. The pipeline is
// its only writer; downstream stages read a snapshot after all writers have
// joined. Writes are guarded so a future parallel component stage stays
// correct.
type OverrideMap struct {
	mu sync.Mutex
	m  map[string]string
}

// NewOverrideMap creates an empty accumulator.
func NewOverrideMap() *OverrideMap {
	return &OverrideMap{m: make(map[string]string)}
}

// Put records the assigned version for a component. A component's entry is
// written at most once per run; a second write is a pipeline bug.
func (o *OverrideMap) Put(artifactID, version string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.m[artifactID]; ok {
		return fmt.Errorf("version override for %s already set to %s", artifactID, existing)
	}
	o.m[artifactID] = version
	return nil
}

// Get returns the recorded version for a component.
func (o *OverrideMap) Get(artifactID string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.m[artifactID]
	return v, ok
}

// Snapshot returns a copy of the accumulated overrides.
func (o *OverrideMap) Snapshot() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := make(map[string]string, len(o.m))
	for k, v := range o.m {
		snapshot[k] = v
	}
	return snapshot
}
