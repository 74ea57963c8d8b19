// Package inject prepends detected testing context to sub-task prompts.
package inject

import (
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/hookio"
	"github.com/hookline/hookline/cmd/hookline/cli/keywords"
)

const (
	blockOpen  = "<testing-context>"
	blockClose = "</testing-context>"
)

// MaybeInject returns ev with its prompt prefixed by ContextBlock(res) when ev
// is a Task dispatch whose prompt is test related. Otherwise it returns ev
// itself and false.
//
// The rewrite touches only tool_input.prompt; every other byte of tool_input
// is preserved.
func MaybeInject(ev *hookio.Event, res detect.Result) (*hookio.Event, bool) {
	if ev == nil || ev.ToolName != hookio.ToolTask {
		return ev, false
	}
	prompt := ev.Prompt()
	if !keywords.Matches(prompt) {
		return ev, false
	}

	updated, err := sjson.SetBytes(cloneBytes(ev.ToolInput), "prompt", ContextBlock(res)+prompt)
	if err != nil {
		return ev, false
	}
	return ev.WithInput(updated), true
}

// ContextBlock renders the text placed before a matching prompt. It always
// ends with a blank line so the original prompt starts on its own paragraph.
func ContextBlock(res detect.Result) string {
	var b strings.Builder
	b.WriteString(blockOpen + "\n")

	framework := string(res.TestFramework)
	if framework == "" {
		framework = "unknown"
	}
	fmt.Fprintf(&b, "Detected test framework: %s\n", framework)
	if res.PackageManager != "" {
		fmt.Fprintf(&b, "Package manager: %s\n", res.PackageManager)
	}
	if len(res.TestDirs) > 0 {
		fmt.Fprintf(&b, "Test directories: %s\n", strings.Join(res.TestDirs, ", "))
	} else {
		b.WriteString("Test directories: none found\n")
	}
	if len(res.TestConfigs) > 0 {
		fmt.Fprintf(&b, "Test configuration: %s\n", strings.Join(res.TestConfigs, ", "))
	}
	if res.GoModule != "" {
		fmt.Fprintf(&b, "Go module: %s\n", res.GoModule)
	}

	title, practices := BestPractices(res.TestFramework)
	fmt.Fprintf(&b, "\n%s:\n", title)
	for _, p := range practices {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	b.WriteString(blockClose + "\n\n")
	return b.String()
}

// cloneBytes keeps sjson from writing into the event's backing array.
func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
