// Package hookio reads hook events from the host and writes decisions back.
package hookio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// Phase is the point in a tool call's lifecycle at which a hook runs.
type Phase string

const (
	PreToolUse  Phase = "PreToolUse"
	PostToolUse Phase = "PostToolUse"
)

// Tool names the host dispatches that hooks care about.
const (
	ToolTask         = "Task"
	ToolBash         = "Bash"
	ToolWrite        = "Write"
	ToolEdit         = "Edit"
	ToolMultiEdit    = "MultiEdit"
	ToolSlashCommand = "SlashCommand"
)

// maxEventSize bounds how much stdin is read for one event.
const maxEventSize = 16 << 20

// ErrEmptyEvent is returned when stdin carried no data.
var ErrEmptyEvent = errors.New("empty hook event")

// Event is one tool-call notification from the host.
//
// ToolInput is kept as raw bytes: hooks that do not rewrite it pass the
// original bytes through untouched.
type Event struct {
	SessionID      string          `json:"session_id,omitempty"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	Cwd            string          `json:"cwd,omitempty"`
	HookEventName  string          `json:"hook_event_name,omitempty"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
}

// ParseEvent decodes a single event from r.
func ParseEvent(r io.Reader) (*Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxEventSize))
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyEvent
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	return &ev, nil
}

// Phase returns the phase the host declared, or "" when it did not.
func (e *Event) Phase() Phase {
	return Phase(e.HookEventName)
}

// Field returns a string field of tool_input by gjson path.
func (e *Event) Field(path string) string {
	if len(e.ToolInput) == 0 {
		return ""
	}
	return gjson.GetBytes(e.ToolInput, path).String()
}

// Prompt is tool_input.prompt (Task).
func (e *Event) Prompt() string { return e.Field("prompt") }

// Command is tool_input.command (Bash, SlashCommand).
func (e *Event) Command() string { return e.Field("command") }

// FilePath is the path a file tool touched.
func (e *Event) FilePath() string {
	for _, key := range []string{"file_path", "path", "notebook_path"} {
		if v := e.Field(key); v != "" {
			return v
		}
	}
	return ""
}

// WithInput returns a copy of e carrying input as its tool_input.
func (e *Event) WithInput(input json.RawMessage) *Event {
	cp := *e
	cp.ToolInput = input
	return &cp
}
