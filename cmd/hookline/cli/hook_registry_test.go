package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/cmd/hookline/cli/hookio"
	"github.com/hookline/hookline/cmd/hookline/cli/logging"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
	"github.com/hookline/hookline/cmd/hookline/cli/settings"
	"github.com/hookline/hookline/cmd/hookline/cli/testutil"
)

const continueLine = `{"continue":true}` + "\n"

// setupProject creates a scratch project and pins hooks to it.
func setupProject(t *testing.T) string {
	t.Helper()
	root := testutil.ResolvedTempDir(t)
	t.Setenv(paths.RootEnvVar, root)
	t.Setenv("HOOKLINE_DISABLED", "")
	t.Setenv(logging.LogLevelEnvVar, "DEBUG")
	return root
}

type hookResult struct {
	stdout string
	stderr string
	code   int
}

func runHook(t *testing.T, name, event string) hookResult {
	t.Helper()
	h := GetHook(name)
	require.NotNil(t, h, "hook %s not registered", name)

	var stdout, stderr bytes.Buffer
	code := dispatch(context.Background(), h, strings.NewReader(event), &stdout, &stderr)
	return hookResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func registerTestHook(t *testing.T, h *Hook) {
	t.Helper()
	RegisterHook(h)
	t.Cleanup(func() { delete(hookRegistry, h.Name) })
}

func readLog(t *testing.T, root, family string) string {
	t.Helper()
	data, err := os.ReadFile(logging.Path(filepath.Join(root, settings.DefaultLogsDir), family))
	require.NoError(t, err)
	return string(data)
}

func TestHookNames(t *testing.T) {
	assert.Equal(t, []string{
		HookAnalytics, HookCISuggest, HookCommitGate, HookDocsCheck, HookTestContext, HookTestWatch,
	}, HookNames())
}

func TestHookCatalogue(t *testing.T) {
	for _, name := range HookNames() {
		h := GetHook(name)
		require.NotNil(t, h.Act, name)
		require.NoError(t, logging.ValidateFamily(h.Family), name)
		assert.Equal(t, name == HookCommitGate, h.CanBlock, "only the commit gate may block: %s", name)
	}
}

func TestDispatch_ToolMismatchIsIdentity(t *testing.T) {
	setupProject(t)

	res := runHook(t, HookTestContext, testutil.Event(t, "Read", map[string]any{"file_path": "x.go"}))
	assert.Equal(t, hookio.ExitAllow, res.code)
	assert.Equal(t, continueLine, res.stdout)
	assert.Empty(t, res.stderr)
}

func TestDispatch_SkipsAreLoggedAtDefaultLevel(t *testing.T) {
	root := setupProject(t)
	t.Setenv(logging.LogLevelEnvVar, "")
	testutil.WriteFile(t, root, "pytest.ini", "[pytest]\n")

	runHook(t, HookTestContext, testutil.Event(t, "Read", map[string]any{"file_path": "x.go"}))
	runHook(t, HookTestContext, testutil.Event(t, "Task", map[string]any{"prompt": "rename the config loader"}))

	log := readLog(t, root, familyTesting)
	assert.Contains(t, log, "hook_skipped")
	assert.Contains(t, log, "tool not matched")
	assert.Contains(t, log, "context_not_injected")
	assert.NotContains(t, log, `"level":"DEBUG"`)
}

func TestDispatch_InvalidEventContinues(t *testing.T) {
	setupProject(t)

	for _, event := range []string{"", "not json", `{"tool_name":`} {
		res := runHook(t, HookCommitGate, event)
		assert.Equal(t, hookio.ExitAllow, res.code, event)
		assert.Equal(t, continueLine, res.stdout, event)
	}
}

func TestDispatch_SilentSkipWritesNothing(t *testing.T) {
	setupProject(t)

	res := runHook(t, HookAnalytics, "garbage")
	assert.Equal(t, hookio.ExitAllow, res.code)
	assert.Empty(t, res.stdout)
}

func TestDispatch_PhaseMismatch(t *testing.T) {
	root := setupProject(t)
	testutil.WriteFile(t, root, ".hookline/test-patterns.json", `{"pre_commit":{"enabled":true},"commands":{"go":["sh","-c","exit 1"]}}`)
	testutil.WriteFile(t, root, "go.mod", "module example.com/x\n")

	event := `{"hook_event_name":"PostToolUse","tool_name":"Bash","tool_input":{"command":"git commit -m x"}}`
	res := runHook(t, HookCommitGate, event)
	assert.Equal(t, hookio.ExitAllow, res.code)
	assert.Equal(t, continueLine, res.stdout)
}

func TestDispatch_PanicContinues(t *testing.T) {
	root := setupProject(t)
	registerTestHook(t, &Hook{
		Name:   "panicky",
		Family: "testing",
		Phase:  hookio.PreToolUse,
		Tools:  []string{AnyTool},
		Act: func(*hookEnv, *hookio.Gate) (hookio.Decision, error) {
			panic("boom")
		},
	})

	res := runHook(t, "panicky", testutil.Event(t, "Bash", map[string]any{"command": "ls"}))
	assert.Equal(t, hookio.ExitAllow, res.code)
	assert.Equal(t, continueLine, res.stdout)
	assert.Contains(t, readLog(t, root, "testing"), "panicked")
}

func TestDispatch_GateOnlyForBlockingHooks(t *testing.T) {
	setupProject(t)
	var sawGate bool
	registerTestHook(t, &Hook{
		Name:   "would-block",
		Family: "testing",
		Phase:  hookio.PreToolUse,
		Tools:  []string{hookio.ToolBash},
		Act: func(_ *hookEnv, gate *hookio.Gate) (hookio.Decision, error) {
			sawGate = gate != nil
			return gate.Block("nope"), nil
		},
	})

	res := runHook(t, "would-block", testutil.Event(t, "Bash", map[string]any{"command": "ls"}))
	assert.False(t, sawGate)
	assert.Equal(t, hookio.ExitAllow, res.code)
	assert.Equal(t, continueLine, res.stdout)
}

func TestDispatch_RejectsBlockFromForeignGate(t *testing.T) {
	root := setupProject(t)
	for _, canBlock := range []bool{false, true} {
		name := map[bool]string{false: "minted-gate", true: "swapped-gate"}[canBlock]
		registerTestHook(t, &Hook{
			Name:     name,
			Family:   "testing",
			Phase:    hookio.PreToolUse,
			Tools:    []string{hookio.ToolBash},
			CanBlock: canBlock,
			Act: func(*hookEnv, *hookio.Gate) (hookio.Decision, error) {
				return hookio.NewGate().Block("nope"), nil
			},
		})

		res := runHook(t, name, testutil.Event(t, "Bash", map[string]any{"command": "ls"}))
		assert.Equal(t, hookio.ExitAllow, res.code, name)
		assert.Equal(t, continueLine, res.stdout, name)
		assert.Empty(t, res.stderr, name)
	}
	assert.Contains(t, readLog(t, root, familyTesting), "block_rejected")
}

func TestDispatch_DisabledByEnvironment(t *testing.T) {
	root := setupProject(t)
	t.Setenv("HOOKLINE_DISABLED", "analytics, test-context")
	testutil.WriteFile(t, root, "pytest.ini", "[pytest]\n")

	res := runHook(t, HookTestContext, testutil.Event(t, "Task", map[string]any{"prompt": "write unit tests"}))
	assert.Equal(t, continueLine, res.stdout)
}

func TestDispatch_ActErrorContinues(t *testing.T) {
	root := setupProject(t)
	registerTestHook(t, &Hook{
		Name:   "failing",
		Family: "testing",
		Phase:  hookio.PostToolUse,
		Tools:  []string{AnyTool},
		Act: func(*hookEnv, *hookio.Gate) (hookio.Decision, error) {
			return hookio.NoDecision(), assert.AnError
		},
	})

	res := runHook(t, "failing", testutil.Event(t, "Write", map[string]any{"file_path": "a.go"}))
	assert.Equal(t, hookio.ExitAllow, res.code)
	assert.Equal(t, continueLine, res.stdout)
	assert.Contains(t, readLog(t, root, "testing"), "hook_failed")
}

func TestDispatch_LogsCompletion(t *testing.T) {
	root := setupProject(t)

	runHook(t, HookTestContext, `{"session_id":"s-1","tool_name":"Task","tool_input":{"prompt":"refactor"}}`)

	lines := strings.Split(strings.TrimSpace(readLog(t, root, "testing")), "\n")
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "hook_completed", last["event_type"])
	details, ok := last["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, HookTestContext, details["hook"])
	assert.Equal(t, "s-1", details["session_id"])
	assert.Equal(t, "continue", details["decision"])
}

func TestChangedFile(t *testing.T) {
	root := testutil.ResolvedTempDir(t)
	for _, tc := range []struct {
		filePath, cwd, want string
	}{
		{filepath.Join(root, "src", "a.go"), "", "src/a.go"},
		{"src/a.go", "", "src/a.go"},
		{"a.go", filepath.Join(root, "pkg"), "pkg/a.go"},
		{filepath.Join(root, ".hookline", "analytics.json"), "", ""},
		{"/elsewhere/a.go", "", ""},
		{"", "", ""},
	} {
		input, err := json.Marshal(map[string]string{"file_path": tc.filePath})
		require.NoError(t, err)
		env := &hookEnv{root: root, event: &hookio.Event{ToolName: "Write", Cwd: tc.cwd, ToolInput: input}}
		assert.Equal(t, tc.want, env.changedFile(), tc.filePath)
	}
}
