package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/jolt/errors"
)

func TestString(t *testing.T) {
	dev := Info{Version: "dev", CommitHash: "abc1234def", BuildTime: "now"}
	assert.False(t, dev.IsRelease())
	assert.Equal(t, "jolt dev (commit abc1234def, built now)", dev.String())
	assert.Equal(t, "abc1234", dev.Short())

	rel := Info{Version: "v1.4.0", CommitHash: "abc", BuildTime: "now"}
	assert.True(t, rel.IsRelease())
	assert.Equal(t, "jolt v1.4.0 (commit abc, built now)", rel.String())
	assert.Equal(t, "abc", rel.Short())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
	assert.Contains(t, info.Platform, "/")
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		wantErr    string
	}{
		{name: "in range", version: "1.4.0", constraint: ">= 1.2, < 2"},
		{name: "tilde", version: "v1.2.9", constraint: "~1.2"},
		{name: "too old", version: "1.1.0", constraint: ">= 1.2", wantErr: "does not satisfy"},
		{name: "too new", version: "2.0.0", constraint: "^1", wantErr: "does not satisfy"},
		{name: "dev build", version: "dev", constraint: ">= 99"},
		{name: "bad constraint", version: "1.0.0", constraint: "about one", wantErr: "invalid version constraint"},
		{name: "bad constraint on dev", version: "dev", constraint: "about one", wantErr: "invalid version constraint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Info{Version: tt.version}.Satisfies(tt.constraint)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSatisfiesHint(t *testing.T) {
	err := Info{Version: "1.0.0"}.Satisfies(">= 1.5")
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "requires")
	assert.NotEmpty(t, errors.GetAllDetails(err))
}
