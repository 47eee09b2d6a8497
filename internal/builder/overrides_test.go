package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideMapWriteOnce(t *testing.T) {
	m := NewOverrideMap()
	require.NoError(t, m.Put("workflow-job", "256.0-stable-abc-SNAPSHOT"))

	err := m.Put("workflow-job", "256.0-stable-def-SNAPSHOT")
	require.Error(t, err)

	v, ok := m.Get("workflow-job")
	assert.True(t, ok)
	assert.Equal(t, "256.0-stable-abc-SNAPSHOT", v)
}

func TestOverrideMapSnapshotIsACopy(t *testing.T) {
	m := NewOverrideMap()
	require.NoError(t, m.Put("remoting", "256.0-default-abc-SNAPSHOT"))

	snap := m.Snapshot()
	snap["remoting"] = "mutated"

	v, _ := m.Get("remoting")
	assert.Equal(t, "256.0-default-abc-SNAPSHOT", v)
}
