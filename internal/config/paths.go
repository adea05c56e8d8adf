package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const appName = "revops"

// Paths holds resolved filesystem locations.
type Paths struct {
	Base     string // $XDG_CONFIG_HOME/revops
	Config   string // <Base>/config.yaml
	State    string // $XDG_DATA_HOME/revops
	Database string // <State>/revops.db
}

// ResolvePaths computes the standard locations. REVOPS_HOME, when set,
// holds both the config file and the state directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("REVOPS_HOME")
	state := filepath.Join(base, "state")
	if base == "" {
		base = filepath.Join(xdg.ConfigHome, appName)
		state = filepath.Join(xdg.DataHome, appName)
	}

	return Paths{
		Base:     base,
		Config:   filepath.Join(base, "config.yaml"),
		State:    state,
		Database: filepath.Join(state, appName+".db"),
	}, nil
}

// EnsureDirs creates the config and state directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.State} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// DatabasePath returns the sqlite file to use: data.path if set, otherwise
// the default state database.
func (p Paths) DatabasePath(cfg Config) string {
	if cfg.Data.Path != "" {
		return cfg.Data.Path
	}
	return p.Database
}

// blockedKeys are keys that must never appear in config paths.
var blockedKeys = map[string]bool{
	"__proto__":   true,
	"prototype":   true,
	"constructor": true,
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is blocked or empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
		if blockedKeys[p] {
			return nil, &ConfigError{Message: "config path contains blocked key: " + p}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			return false
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
