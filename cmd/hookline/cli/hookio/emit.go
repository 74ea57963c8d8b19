package hookio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hookline/hookline/cmd/hookline/cli/jsonutil"
)

// Exit codes understood by the host.
const (
	ExitAllow = 0
	ExitBlock = 2
)

type output struct {
	Continue           bool                `json:"continue,omitempty"`
	Decision           string              `json:"decision,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type hookSpecificOutput struct {
	HookEventName string          `json:"hookEventName"`
	UpdatedInput  json.RawMessage `json:"updatedInput"`
}

// Emit writes d for the host and returns the process exit code.
//
// A silent hook's plain Continue writes nothing; Block additionally writes the
// reason to stderr so it reaches the agent even if stdout is ignored.
func Emit(stdout, stderr io.Writer, phase Phase, d Decision, silent bool) int {
	var out *output
	code := ExitAllow

	switch d.kind {
	case KindNone:
		return ExitAllow
	case KindContinue:
		if silent {
			return ExitAllow
		}
		out = &output{Continue: true}
	case KindContinueWith:
		out = &output{
			Continue: true,
			HookSpecificOutput: &hookSpecificOutput{
				HookEventName: string(phase),
				UpdatedInput:  d.input,
			},
		}
	case KindBlock:
		out = &output{Decision: "block", Reason: d.reason}
		code = ExitBlock
		fmt.Fprintln(stderr, d.reason)
	}

	data, err := jsonutil.MarshalLine(out)
	if err != nil {
		// Only reachable with an invalid updatedInput; fall back to a plain allow.
		data = []byte(`{"continue":true}` + "\n")
		code = ExitAllow
	}
	_, _ = stdout.Write(data) //nolint:errcheck // nothing useful to do if the host closed stdout
	return code
}
