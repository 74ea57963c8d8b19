// Package analytics keeps per-project usage counters for tools and commands.
//
// The counters live in one JSON document that is replaced atomically on every
// update. An exclusive advisory lock on a sidecar file serialises concurrent
// hook processes so no increment is lost.
package analytics

import "time"

// DayFormat keys daily_activity.
const DayFormat = "2006-01-02"

// State is the persisted analytics document.
type State struct {
	Created        time.Time `json:"created"`
	LastUpdated    time.Time `json:"last_updated"`
	TotalSessions  int       `json:"total_sessions"`
	CurrentSession Session   `json:"current_session"`
	Aggregate      Aggregate `json:"aggregate"`
}

// Session holds counters for the host session seen most recently.
type Session struct {
	ID           string         `json:"id,omitempty"`
	Started      time.Time      `json:"started"`
	CommandsUsed []string       `json:"commands_used"`
	ToolsUsed    map[string]int `json:"tools_used"`
}

// Aggregate holds all-time counters.
type Aggregate struct {
	CommandUsage  map[string]int `json:"command_usage"`
	ToolUsage     map[string]int `json:"tool_usage"`
	DailyActivity map[string]int `json:"daily_activity"`
}

// NewState returns an empty document created at now.
func NewState(now time.Time) *State {
	s := &State{
		Created:     now,
		LastUpdated: now,
		CurrentSession: Session{
			Started: now,
		},
	}
	s.normalize()
	return s
}

// normalize allocates nil collections so the document always serialises
// with empty objects and arrays instead of null.
func (s *State) normalize() {
	if s.CurrentSession.CommandsUsed == nil {
		s.CurrentSession.CommandsUsed = []string{}
	}
	if s.CurrentSession.ToolsUsed == nil {
		s.CurrentSession.ToolsUsed = map[string]int{}
	}
	if s.Aggregate.CommandUsage == nil {
		s.Aggregate.CommandUsage = map[string]int{}
	}
	if s.Aggregate.ToolUsage == nil {
		s.Aggregate.ToolUsage = map[string]int{}
	}
	if s.Aggregate.DailyActivity == nil {
		s.Aggregate.DailyActivity = map[string]int{}
	}
}

// Kind selects which counters an Entry increments.
type Kind int

const (
	// KindTool counts a tool invocation.
	KindTool Kind = iota
	// KindCommand counts a recognised command keyword.
	KindCommand
)

// Entry is one observation to record.
type Entry struct {
	Kind Kind
	Key  string
}

// Tool is shorthand for a KindTool entry.
func Tool(name string) Entry { return Entry{Kind: KindTool, Key: name} }

// Command is shorthand for a KindCommand entry.
func Command(name string) Entry { return Entry{Kind: KindCommand, Key: name} }

// startSession begins a new current session when id differs from the one on
// record. An empty id never starts a session.
func (s *State) startSession(id string, now time.Time) {
	if id == "" || id == s.CurrentSession.ID {
		return
	}
	s.TotalSessions++
	s.CurrentSession = Session{
		ID:           id,
		Started:      now,
		CommandsUsed: []string{},
		ToolsUsed:    map[string]int{},
	}
}

// apply increments the counters for e. Entries with empty keys are ignored.
func (s *State) apply(e Entry, now time.Time) {
	if e.Key == "" {
		return
	}
	switch e.Kind {
	case KindTool:
		s.Aggregate.ToolUsage[e.Key]++
		s.CurrentSession.ToolsUsed[e.Key]++
		s.Aggregate.DailyActivity[now.Format(DayFormat)]++
	case KindCommand:
		s.Aggregate.CommandUsage[e.Key]++
		s.CurrentSession.CommandsUsed = append(s.CurrentSession.CommandsUsed, e.Key)
	}
}
