// Package testrun maps a detected test framework to a concrete command and
// runs it, either blocking with a bounded wait or detached.
package testrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/redact"
)

// SummaryLines is how many trailing output lines an Outcome keeps.
const SummaryLines = 20

// maxCapture bounds the output kept in memory while a run is in progress.
const maxCapture = 256 << 10

// waitDelay is how long Wait gives a killed process group to close its pipes.
const waitDelay = 2 * time.Second

// Kind classifies a test run.
type Kind string

const (
	Passed      Kind = "passed"
	Failed      Kind = "failed"
	Timeout     Kind = "timeout"
	Unsupported Kind = "unsupported"
)

// Spec describes one test run.
type Spec struct {
	Framework      detect.Framework
	PackageManager detect.PackageManager

	// Dir is the project root the command runs in.
	Dir string

	// Scope narrows the run to these root-relative files when the framework
	// supports it. Empty means the full suite.
	Scope []string

	// Override replaces the table command verbatim.
	Override []string

	// Timeout bounds the run. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Outcome is the classified result of a run.
type Outcome struct {
	Kind     Kind          `json:"kind"`
	Label    string        `json:"label"`
	Command  []string      `json:"command,omitempty"`
	ExitCode int           `json:"exit_code"`
	Summary  string        `json:"summary,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Run executes the command for spec and waits for it.
//
// The child gets its own process group; when the timeout or ctx expires the
// whole group is killed and the outcome is Timeout. A missing binary or an
// unknown framework is Unsupported.
func Run(ctx context.Context, spec Spec) Outcome {
	out := Outcome{Label: Label(spec.Framework), Kind: Unsupported, ExitCode: -1}
	argv := Argv(spec)
	if len(argv) == 0 {
		out.Summary = fmt.Sprintf("no test command for framework %q", spec.Framework)
		return out
	}
	out.Command = redact.Strings(argv)
	return execute(ctx, argv, spec.Dir, spec.Timeout, out)
}

// RunArgv executes argv directly with the same classification as Run.
func RunArgv(ctx context.Context, label string, argv []string, dir string, timeout time.Duration) Outcome {
	out := Outcome{Label: label, Kind: Unsupported, ExitCode: -1}
	if len(argv) == 0 {
		out.Summary = "empty command"
		return out
	}
	out.Command = redact.Strings(argv)
	return execute(ctx, argv, dir, timeout, out)
}

func execute(ctx context.Context, argv []string, dir string, timeout time.Duration, out Outcome) Outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tail := &tailBuffer{limit: maxCapture}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv comes from the framework table or project config
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CI=true")
	cmd.Stdout = tail
	cmd.Stderr = tail
	cmd.WaitDelay = waitDelay
	setProcGroup(cmd)
	cmd.Cancel = func() error { return killProcGroup(cmd) }

	start := time.Now()
	err := cmd.Run()
	out.Duration = time.Since(start)
	out.Summary = redact.String(tail.Lines(SummaryLines))

	switch {
	case err == nil:
		out.Kind = Passed
		out.ExitCode = 0
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		out.Kind = Unsupported
		if out.Summary == "" {
			out.Summary = err.Error()
		}
	case ctx.Err() != nil:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out.Kind = Timeout
		} else {
			out.Kind = Unsupported
		}
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.Kind = Failed
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.Kind = Unsupported
			if out.Summary == "" {
				out.Summary = err.Error()
			}
		}
	}
	return out
}

// tailBuffer keeps the most recent output up to limit bytes.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

// Lines returns the last n lines of captured output, ignoring trailing whitespace.
func (t *tailBuffer) Lines(n int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lastLines(t.buf, n)
}

func lastLines(b []byte, n int) string {
	b = bytes.TrimRight(b, "\r\n\t ")
	if len(b) == 0 || n <= 0 {
		return ""
	}
	idx := len(b)
	for i := 0; i < n; i++ {
		j := bytes.LastIndexByte(b[:idx], '\n')
		if j < 0 {
			return strings.ToValidUTF8(string(b), "")
		}
		idx = j
	}
	return strings.ToValidUTF8(string(b[idx+1:]), "")
}
