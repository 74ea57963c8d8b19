package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultPreCommitTimeout bounds a blocking commit-gate run.
	DefaultPreCommitTimeout = 300 * time.Second
	// DefaultWatchTimeout bounds a detached watch-mode run.
	DefaultWatchTimeout = 60 * time.Second
)

// TestPatterns represents .hookline/test-patterns.json.
type TestPatterns struct {
	PreCommit PreCommit `json:"pre_commit"`
	WatchMode WatchMode `json:"watch_mode"`

	// Commands overrides the test command per framework, e.g.
	// {"go": ["go", "test", "-race", "./..."]}.
	Commands map[string][]string `json:"commands,omitempty"`
}

// PreCommit configures the commit gate.
type PreCommit struct {
	Enabled        bool  `json:"enabled"`
	TimeoutSeconds int   `json:"timeout_seconds,omitempty"`
	ScopeToStaged  *bool `json:"scope_to_staged,omitempty"`
}

// Timeout returns the configured bound, or the default for non-positive values.
func (p PreCommit) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultPreCommitTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Scoped reports whether the run is narrowed to staged files. Defaults to true.
func (p PreCommit) Scoped() bool {
	return p.ScopeToStaged == nil || *p.ScopeToStaged
}

// WatchMode configures the detached test run triggered by file edits.
type WatchMode struct {
	Enabled        bool `json:"enabled"`
	TimeoutSeconds int  `json:"timeout_seconds,omitempty"`

	// NotifyCommand is spawned after each run with HOOKLINE_OUTCOME set.
	NotifyCommand []string `json:"notify_command,omitempty"`
}

// Timeout returns the configured bound, or the default for non-positive values.
func (w WatchMode) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return DefaultWatchTimeout
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// CommandFor returns the override argv for a framework, if any.
func (t *TestPatterns) CommandFor(framework string) ([]string, bool) {
	argv, ok := t.Commands[framework]
	if !ok || len(argv) == 0 {
		return nil, false
	}
	return argv, true
}

// LoadTestPatterns reads test-patterns.json. The returned value is never nil;
// on any error it is the all-disabled default.
func LoadTestPatterns(root string) (*TestPatterns, error) {
	tp := &TestPatterns{}
	if err := loadJSON(Path(root, TestPatternsFile), tp); err != nil {
		return &TestPatterns{}, err
	}
	return tp, nil
}

// Analytics represents .hookline/analytics.json.
type Analytics struct {
	Enabled bool `json:"enabled"`

	// StateFile is the analytics document, relative to the project root
	// unless absolute.
	StateFile string `json:"state_file,omitempty"`
}

// DefaultAnalyticsStateFile is used when state_file is unset.
const DefaultAnalyticsStateFile = Dir + "/state/analytics.json"

// StatePath resolves the analytics document against root.
func (a *Analytics) StatePath(root string) string {
	p := a.StateFile
	if p == "" {
		p = DefaultAnalyticsStateFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// LoadAnalytics reads analytics.json. The returned value is never nil; on any
// error it is the disabled default.
func LoadAnalytics(root string) (*Analytics, error) {
	a := &Analytics{}
	if err := loadJSON(Path(root, AnalyticsFile), a); err != nil {
		return &Analytics{}, err
	}
	return a, nil
}

// loadJSON decodes path into v. A missing file is not an error and leaves v
// untouched.
func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the project root
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
