package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackagerErrorFormatting(t *testing.T) {
	e := ConfigError("bundle section is missing")
	assert.Equal(t, "config (fatal): bundle section is missing", e.Error())

	cause := fmt.Errorf("exit status 128")
	wrapped := SourceError(cause, "git clone failed")
	assert.Contains(t, wrapped.Error(), "exit status 128")
	assert.True(t, errors.Is(wrapped, cause))
}

func TestCategoryClassification(t *testing.T) {
	require.True(t, IsCategory(ConfigError("x"), CategoryConfig))
	require.False(t, IsCategory(ConfigError("x"), CategoryBuild))
	require.Equal(t, CategoryPatch, GetCategory(PatchError(nil, "bad archive")))
	require.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
}

func TestExitCodeMapping(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{fmt.Errorf("plain"), 1},
		{ConfigError("missing bundle"), 7},
		{SourceError(nil, "clone"), 8},
		{BuildError(nil, "mvn"), 11},
		{PatchError(nil, "lib"), 12},
		{New(CategoryValidation, SeverityWarning, "usage"), 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, adapter.ExitCodeFor(tc.err), "error %v", tc.err)
	}
}

func TestWithContext(t *testing.T) {
	e := BuildError(nil, "install failed").WithContext("component", "workflow-job")
	require.Equal(t, "workflow-job", e.Context["component"])
}
