package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/hookline/hookline/cmd/hookline/cli/hookio"
	"github.com/hookline/hookline/cmd/hookline/cli/logging"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
	"github.com/hookline/hookline/cmd/hookline/cli/settings"
)

// AnyTool matches every tool name.
const AnyTool = "*"

// Log families.
const (
	familyTesting   = "testing"
	familyAnalytics = "analytics"
	familyCI        = "ci"
	familyDocs      = "docs"
	familyWatchRuns = "watch-runs"
)

// ActFunc is a hook's behaviour once every filter has passed. gate is nil
// unless the hook was registered with CanBlock.
type ActFunc func(env *hookEnv, gate *hookio.Gate) (hookio.Decision, error)

// Hook describes one registered hook.
type Hook struct {
	Name   string
	Family string
	Phase  hookio.Phase
	Tools  []string

	// Match narrows Tools further, e.g. to git commit commands. Nil matches.
	Match func(env *hookEnv) bool

	// Enabled is the configuration check. Nil means always on.
	Enabled func(env *hookEnv) bool

	// Silent hooks write nothing on a plain continue.
	Silent bool

	// CanBlock hooks receive a gate.
	CanBlock bool

	Act ActFunc
}

func (h *Hook) matchesTool(tool string) bool {
	return slices.Contains(h.Tools, AnyTool) || slices.Contains(h.Tools, tool)
}

// hookRegistry maps hook names to hooks.
var hookRegistry = map[string]*Hook{}

// RegisterHook adds h to the registry, replacing any hook with the same name.
func RegisterHook(h *Hook) {
	hookRegistry[h.Name] = h
}

// GetHook returns the hook registered under name, or nil.
func GetHook(name string) *Hook {
	return hookRegistry[name]
}

// HookNames returns the registered hook names, sorted.
func HookNames() []string {
	names := make([]string, 0, len(hookRegistry))
	for name := range hookRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hookEnv is what a hook sees during one invocation.
type hookEnv struct {
	ctx       context.Context
	event     *hookio.Event
	root      string
	settings  *settings.Settings
	patterns  *settings.TestPatterns
	analytics *settings.Analytics
}

// changedFile returns the root-relative path of the file the tool touched,
// or "" when there is none or it lies outside the project.
func (e *hookEnv) changedFile() string {
	p := e.event.FilePath()
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		base := e.event.Cwd
		if base == "" {
			base = e.root
		}
		p = filepath.Join(base, p)
	}
	rel := paths.ToRelativePath(p, e.root)
	if rel == "" || paths.IsInfrastructurePath(rel) {
		return ""
	}
	return rel
}

// newHookEnv resolves the project root and loads configuration. Broken
// configuration files are logged later and read as their disabled defaults.
func newHookEnv(ctx context.Context, ev *hookio.Event) (*hookEnv, []error) {
	cwd := ""
	if ev != nil {
		cwd = ev.Cwd
	}
	root := paths.ProjectRoot(cwd)

	var errs []error
	s, err := settings.Load(root)
	if err != nil {
		errs = append(errs, err)
	}
	tp, err := settings.LoadTestPatterns(root)
	if err != nil {
		errs = append(errs, err)
	}
	an, err := settings.LoadAnalytics(root)
	if err != nil {
		errs = append(errs, err)
	}

	return &hookEnv{
		ctx:       ctx,
		event:     ev,
		root:      root,
		settings:  s,
		patterns:  tp,
		analytics: an,
	}, errs
}

// dispatch runs h against the event on stdin, writes the decision and
// returns the process exit code.
//
// Start -> phase check -> tool match -> config check -> act -> emit. Every
// failed check is a skip, and a skip always continues. The exit code is
// hookio.ExitBlock only when a gate-holding hook blocked.
func dispatch(ctx context.Context, h *Hook, stdin io.Reader, stdout, stderr io.Writer) int {
	start := time.Now()

	ev, parseErr := hookio.ParseEvent(stdin)
	env, cfgErrs := newHookEnv(ctx, ev)

	logging.SetLogLevelGetter(func() string { return env.settings.LogLevel })
	_ = logging.Init(env.settings.LogsPath(env.root), h.Family) //nolint:errcheck // family names are constants
	defer logging.Close()

	ctx = logging.WithHook(logging.WithComponent(logging.WithInvocation(ctx), "hooks"), h.Name)
	for _, err := range cfgErrs {
		logging.Warn(ctx, "config_invalid", slog.String("error", err.Error()))
	}

	skip := func(reason string) int {
		logging.Info(ctx, "hook_skipped", slog.String("reason", reason))
		return hookio.Emit(stdout, stderr, h.Phase, hookio.Continue(), h.Silent)
	}

	if parseErr != nil {
		logging.Warn(ctx, "event_invalid", slog.String("error", parseErr.Error()))
		return skip("invalid event")
	}
	ctx = logging.WithTool(logging.WithSession(ctx, ev.SessionID), ev.ToolName)
	env.ctx = ctx

	if phase := ev.Phase(); phase != "" && phase != h.Phase {
		return skip("phase " + string(phase))
	}
	if !h.matchesTool(ev.ToolName) || (h.Match != nil && !h.Match(env)) {
		return skip("tool not matched")
	}
	if env.settings.IsHookDisabled(h.Name) {
		return skip("disabled by name")
	}
	if h.Enabled != nil && !h.Enabled(env) {
		return skip("disabled by config")
	}

	var gate *hookio.Gate
	if h.CanBlock {
		gate = hookio.NewGate()
	}

	d, err := act(h, env, gate)
	if err != nil {
		logging.Error(ctx, "hook_failed", slog.String("error", err.Error()))
		d = hookio.Continue()
	}
	if !d.IssuedBy(gate) {
		logging.Warn(ctx, "block_rejected", slog.String("reason", d.Reason()))
		d = hookio.Continue()
	}

	code := hookio.Emit(stdout, stderr, h.Phase, d, h.Silent)
	logging.LogDuration(ctx, slog.LevelInfo, "hook_completed", start,
		slog.String("decision", d.Kind().String()),
		slog.Int("exit_code", code),
	)
	return code
}

// act runs the hook body. A panic becomes an error so the hook still
// continues.
func act(h *Hook, env *hookEnv, gate *hookio.Gate) (d hookio.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = hookio.Continue()
			err = fmt.Errorf("hook %s panicked: %v", h.Name, r)
		}
	}()
	return h.Act(env, gate)
}
