package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_Home(t *testing.T) {
	home := t.TempDir()
	t.Setenv("REVOPS_HOME", home)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, home, p.Base)
	assert.Equal(t, filepath.Join(home, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(home, "state", "revops.db"), p.Database)

	require.NoError(t, p.EnsureDirs())
	assert.DirExists(t, p.State)
}

func TestResolvePaths_XDG(t *testing.T) {
	t.Setenv("REVOPS_HOME", "")

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, "revops", filepath.Base(p.Base))
	assert.Equal(t, "config.yaml", filepath.Base(p.Config))
	assert.Equal(t, "revops.db", filepath.Base(p.Database))
}

func TestDatabasePath(t *testing.T) {
	p := Paths{Database: "/state/revops.db"}
	cfg := Defaults()
	assert.Equal(t, "/state/revops.db", p.DatabasePath(cfg))
	cfg.Data.Path = "/custom.db"
	assert.Equal(t, "/custom.db", p.DatabasePath(cfg))
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "gateway", []string{"gateway"}, false},
		{"nested", "assistant.timeoutSeconds", []string{"assistant", "timeoutSeconds"}, false},
		{"empty", "", nil, true},
		{"empty segment", "gateway..port", nil, true},
		{"trailing dot", "gateway.", nil, true},
		{"blocked", "foo.__proto__.bar", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueAtPath(t *testing.T) {
	root := map[string]any{}
	SetValueAtPath(root, []string{"data", "source"}, "sqlite")
	SetValueAtPath(root, []string{"data", "dir"}, "crm")

	v, ok := GetValueAtPath(root, []string{"data", "source"})
	require.True(t, ok)
	assert.Equal(t, "sqlite", v)

	_, ok = GetValueAtPath(root, []string{"data", "source", "deeper"})
	assert.False(t, ok)

	assert.True(t, UnsetValueAtPath(root, []string{"data", "dir"}))
	assert.False(t, UnsetValueAtPath(root, []string{"data", "dir"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))
	_, ok = GetValueAtPath(root, []string{"data", "dir"})
	assert.False(t, ok)
}
