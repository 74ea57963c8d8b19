package inject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/hookio"
	"github.com/hookline/hookline/cmd/hookline/cli/testutil"
)

func taskEvent(input string) *hookio.Event {
	return &hookio.Event{ToolName: hookio.ToolTask, ToolInput: json.RawMessage(input)}
}

func TestMaybeInject_PytestScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.Touch(t, dir, "pytest.ini", "requirements.txt")
	testutil.Mkdir(t, dir, "tests")
	res := detect.Detect(dir)
	require.Equal(t, detect.FrameworkPytest, res.TestFramework)

	ev := taskEvent(`{"prompt":"write unit tests for the parser"}`)
	out, injected := MaybeInject(ev, res)
	require.True(t, injected)

	prompt := out.Prompt()
	assert.True(t, strings.HasPrefix(prompt, "<testing-context>\nDetected test framework: pytest\n"))
	assert.Contains(t, prompt, "Test directories: tests/\n")
	assert.Contains(t, prompt, "Best practices for pytest")
	assert.True(t, strings.HasSuffix(prompt, "write unit tests for the parser"))
	assert.Equal(t, ContextBlock(res)+"write unit tests for the parser", prompt)
}

func TestMaybeInject_NonMatchIsByteIdentical(t *testing.T) {
	t.Parallel()

	raw := `{"prompt":  "refactor the HTTP client",   "subagent_type":"general"}`
	ev := taskEvent(raw)
	out, injected := MaybeInject(ev, detect.Result{TestFramework: detect.FrameworkGo})
	assert.False(t, injected)
	assert.Same(t, ev, out)
	assert.Equal(t, raw, string(out.ToolInput))
}

func TestMaybeInject_OnlyTask(t *testing.T) {
	t.Parallel()

	for _, tool := range []string{hookio.ToolBash, hookio.ToolWrite, "task", ""} {
		ev := &hookio.Event{ToolName: tool, ToolInput: json.RawMessage(`{"prompt":"write tests"}`)}
		out, injected := MaybeInject(ev, detect.Result{})
		assert.False(t, injected, tool)
		assert.Same(t, ev, out)
	}

	out, injected := MaybeInject(nil, detect.Result{})
	assert.False(t, injected)
	assert.Nil(t, out)
}

func TestMaybeInject_PreservesOtherFields(t *testing.T) {
	t.Parallel()

	raw := `{"description":"Add tests","prompt":"Add integration tests","subagent_type":"tester","extra":{"a":[1,2,3]}}`
	ev := taskEvent(raw)
	out, injected := MaybeInject(ev, detect.Result{})
	require.True(t, injected)

	assert.Equal(t, raw, string(ev.ToolInput), "source event must not be mutated")

	got := gjson.ParseBytes(out.ToolInput)
	assert.Equal(t, "Add tests", got.Get("description").String())
	assert.Equal(t, "tester", got.Get("subagent_type").String())
	assert.Equal(t, `{"a":[1,2,3]}`, got.Get("extra").Raw)

	// Everything outside the prompt value is unchanged.
	origPrompt := gjson.Get(raw, "prompt")
	newPrompt := got.Get("prompt")
	assert.Equal(t, raw[:origPrompt.Index], string(out.ToolInput[:newPrompt.Index]))
	assert.Equal(t, raw[origPrompt.Index+len(origPrompt.Raw):], string(out.ToolInput[newPrompt.Index+len(newPrompt.Raw):]))
}

func TestMaybeInject_IsAdditive(t *testing.T) {
	t.Parallel()

	prompts := []string{
		"write unit tests",
		"Check coverage: \"quoted\" and \\ backslash\nnew line",
		"E2E spec with unicode ✓ and <html> & stuff",
	}
	res := detect.Result{TestFramework: detect.FrameworkJest, TestDirs: []string{"__tests__/"}}
	for _, p := range prompts {
		input, err := json.Marshal(map[string]string{"prompt": p})
		require.NoError(t, err)
		out, injected := MaybeInject(taskEvent(string(input)), res)
		require.True(t, injected, p)
		assert.Equal(t, ContextBlock(res)+p, out.Prompt())
	}
}

func TestContextBlock(t *testing.T) {
	t.Parallel()

	block := ContextBlock(detect.Result{
		TestFramework:  detect.FrameworkGo,
		PackageManager: detect.PackageManagerGo,
		TestConfigs:    []string{"codecov.yml"},
		GoModule:       "github.com/acme/widget",
	})
	assert.Contains(t, block, "Package manager: go\n")
	assert.Contains(t, block, "Test directories: none found\n")
	assert.Contains(t, block, "Test configuration: codecov.yml\n")
	assert.Contains(t, block, "Go module: github.com/acme/widget\n")
	assert.Contains(t, block, "table-driven")
	assert.True(t, strings.HasSuffix(block, "</testing-context>\n\n"))
}

func TestBestPractices_Fallback(t *testing.T) {
	t.Parallel()

	title, practices := BestPractices("")
	assert.Equal(t, "General testing best practices", title)
	assert.NotEmpty(t, practices)

	unknown := ContextBlock(detect.Result{})
	assert.Contains(t, unknown, "Detected test framework: unknown\n")
	assert.Contains(t, unknown, "General testing best practices")
}
