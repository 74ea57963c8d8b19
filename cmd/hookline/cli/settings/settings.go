// Package settings loads hookline's configuration documents.
//
// All documents live under <root>/.hookline/ and are optional. A missing
// document yields defaults in which every optional hook is disabled; an
// unreadable or malformed one yields the same defaults plus an error the
// caller is expected to log and otherwise ignore.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// Dir is the per-project configuration directory.
	Dir = ".hookline"
	// SettingsFile holds general settings.
	SettingsFile = "settings.json"
	// SettingsLocalFile overrides SettingsFile and is not meant to be committed.
	SettingsLocalFile = "settings.local.json"
	// TestPatternsFile configures the commit gate and watch mode.
	TestPatternsFile = "test-patterns.json"
	// AnalyticsFile configures the analytics hook.
	AnalyticsFile = "analytics.json"

	// DefaultLogsDir is where hook logs go unless logs_dir says otherwise.
	DefaultLogsDir = Dir + "/logs"
)

// Settings represents .hookline/settings.json merged with its local override
// and the HOOKLINE_* environment.
type Settings struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty" env:"HOOKLINE_LOG_LEVEL"`

	// LogsDir is the log directory, relative to the project root unless absolute.
	LogsDir string `json:"logs_dir,omitempty" env:"HOOKLINE_LOGS_DIR"`

	// DisabledHooks names hooks that must short-circuit to continue.
	DisabledHooks []string `json:"disabled_hooks,omitempty" env:"HOOKLINE_DISABLED" envSeparator:","`
}

// Path joins a file name onto the configuration directory of root.
func Path(root, name string) string {
	return filepath.Join(root, Dir, name)
}

// Load reads settings.json, applies settings.local.json on top of it key by
// key, then applies environment overrides. Defaults are returned when no file
// exists.
func Load(root string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(Path(root, SettingsFile)) //nolint:gosec // path is built from the project root
	switch {
	case err == nil:
		if err := json.Unmarshal(data, s); err != nil {
			return defaults(), fmt.Errorf("parsing settings file: %w", err)
		}
	case !os.IsNotExist(err):
		return defaults(), fmt.Errorf("reading settings file: %w", err)
	}

	localData, err := os.ReadFile(Path(root, SettingsLocalFile)) //nolint:gosec // path is built from the project root
	switch {
	case err == nil:
		if err := mergeJSON(s, localData); err != nil {
			return defaults(), fmt.Errorf("merging local settings: %w", err)
		}
	case !os.IsNotExist(err):
		return defaults(), fmt.Errorf("reading local settings file: %w", err)
	}

	if err := env.Parse(s); err != nil {
		return defaults(), fmt.Errorf("parsing environment: %w", err)
	}
	applyDefaults(s)
	return s, nil
}

func defaults() *Settings {
	s := &Settings{}
	// The environment still applies when the files are broken.
	_ = env.Parse(s) //nolint:errcheck // best effort
	applyDefaults(s)
	return s
}

func applyDefaults(s *Settings) {
	if s.LogsDir == "" {
		s.LogsDir = DefaultLogsDir
	}
	cleaned := s.DisabledHooks[:0]
	for _, h := range s.DisabledHooks {
		if h = strings.TrimSpace(h); h != "" {
			cleaned = append(cleaned, h)
		}
	}
	s.DisabledHooks = cleaned
}

// mergeJSON merges JSON data into existing settings.
// Only keys present in data override existing values.
func mergeJSON(s *Settings, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	if v, ok := raw["log_level"]; ok {
		var ll string
		if err := json.Unmarshal(v, &ll); err != nil {
			return fmt.Errorf("parsing log_level field: %w", err)
		}
		if ll != "" {
			s.LogLevel = ll
		}
	}
	if v, ok := raw["logs_dir"]; ok {
		var dir string
		if err := json.Unmarshal(v, &dir); err != nil {
			return fmt.Errorf("parsing logs_dir field: %w", err)
		}
		if dir != "" {
			s.LogsDir = dir
		}
	}
	if v, ok := raw["disabled_hooks"]; ok {
		var hooks []string
		if err := json.Unmarshal(v, &hooks); err != nil {
			return fmt.Errorf("parsing disabled_hooks field: %w", err)
		}
		s.DisabledHooks = hooks
	}
	return nil
}

// LogsPath resolves the logs directory against root.
func (s *Settings) LogsPath(root string) string {
	if filepath.IsAbs(s.LogsDir) {
		return s.LogsDir
	}
	return filepath.Join(root, s.LogsDir)
}

// IsHookDisabled reports whether hook was switched off by name.
func (s *Settings) IsHookDisabled(hook string) bool {
	return slices.Contains(s.DisabledHooks, hook)
}
