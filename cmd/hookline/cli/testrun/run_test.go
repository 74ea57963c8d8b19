package testrun

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRun_Passed(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	out := Run(context.Background(), Spec{
		Framework: detect.FrameworkGo,
		Dir:       t.TempDir(),
		Override:  []string{"sh", "-c", "echo ok"},
	})
	assert.Equal(t, Passed, out.Kind)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, "go test", out.Label)
	assert.Equal(t, "ok", out.Summary)
}

func TestRun_FailedKeepsTail(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	script := `for i in $(seq 1 30); do echo "line $i"; done; echo "FAIL parser" >&2; exit 3`
	out := Run(context.Background(), Spec{
		Framework: detect.FrameworkGo,
		Dir:       t.TempDir(),
		Override:  []string{"sh", "-c", script},
	})
	assert.Equal(t, Failed, out.Kind)
	assert.Equal(t, 3, out.ExitCode)

	lines := strings.Split(out.Summary, "\n")
	assert.Len(t, lines, SummaryLines)
	assert.Equal(t, "line 12", lines[0])
	assert.Equal(t, "FAIL parser", lines[len(lines)-1])
}

func TestRun_TimeoutKillsGroup(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "survived")
	// The background sleep shares the process group and must die with it.
	script := "(sleep 2; touch " + marker + ") & sleep 30"

	start := time.Now()
	out := Run(context.Background(), Spec{
		Framework: detect.FrameworkPytest,
		Dir:       dir,
		Override:  []string{"sh", "-c", script},
		Timeout:   200 * time.Millisecond,
	})
	assert.Equal(t, Timeout, out.Kind)
	assert.Less(t, time.Since(start), 10*time.Second)

	time.Sleep(2500 * time.Millisecond)
	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "child of the test command outlived the timeout")
}

func TestRun_MissingBinaryIsUnsupported(t *testing.T) {
	t.Parallel()

	out := Run(context.Background(), Spec{
		Framework: detect.FrameworkGo,
		Dir:       t.TempDir(),
		Override:  []string{"hookline-definitely-not-installed-binary"},
	})
	assert.Equal(t, Unsupported, out.Kind)
	assert.NotEmpty(t, out.Summary)
}

func TestRun_UnknownFrameworkIsUnsupported(t *testing.T) {
	t.Parallel()

	out := Run(context.Background(), Spec{Dir: t.TempDir()})
	assert.Equal(t, Unsupported, out.Kind)
	assert.Empty(t, out.Command)
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Run(ctx, Spec{Framework: detect.FrameworkGo, Dir: t.TempDir(), Override: []string{"sh", "-c", "sleep 5"}})
	assert.NotEqual(t, Passed, out.Kind)
	assert.NotEqual(t, Failed, out.Kind)
}

func TestRun_SummaryIsRedacted(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	out := Run(context.Background(), Spec{
		Framework: detect.FrameworkGo,
		Dir:       t.TempDir(),
		Override:  []string{"sh", "-c", "echo API_TOKEN=hunter2; exit 1"},
	})
	require.Equal(t, Failed, out.Kind)
	assert.NotContains(t, out.Summary, "hunter2")
}

func TestRunArgv(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	out := RunArgv(context.Background(), "custom", []string{"sh", "-c", "exit 0"}, t.TempDir(), time.Second)
	assert.Equal(t, Passed, out.Kind)
	assert.Equal(t, "custom", out.Label)

	out = RunArgv(context.Background(), "custom", nil, t.TempDir(), time.Second)
	assert.Equal(t, Unsupported, out.Kind)
}

func TestLastLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", lastLines(nil, 5))
	assert.Equal(t, "a\nb", lastLines([]byte("a\nb\n\n"), 5))
	assert.Equal(t, "c\nd", lastLines([]byte("a\nb\nc\nd"), 2))
	assert.Equal(t, "", lastLines([]byte("a"), 0))
}

func TestTailBuffer_Bounded(t *testing.T) {
	t.Parallel()

	tb := &tailBuffer{limit: 8}
	_, _ = tb.Write([]byte("0123456789"))
	_, _ = tb.Write([]byte("ab"))
	assert.Equal(t, "456789ab", tb.Lines(1))
}

func TestSpawnDetached(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	require.NoError(t, SpawnDetached(dir, []string{"HOOKLINE_MARK=" + marker}, "sh", "-c", `touch "$HOOKLINE_MARK"`))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	require.Error(t, SpawnDetached(dir, nil))
}
