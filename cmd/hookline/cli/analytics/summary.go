package analytics

import (
	"sort"
	"time"
)

// Count is a named counter.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayCount is activity on one calendar day.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Summary is the read-only report derived from a State.
type Summary struct {
	Created       time.Time      `json:"created"`
	LastUpdated   time.Time      `json:"last_updated"`
	TotalSessions int            `json:"total_sessions"`
	ToolCalls     int            `json:"tool_calls"`
	CommandCalls  int            `json:"command_calls"`
	TopTool       *Count         `json:"top_tool,omitempty"`
	TopCommand    *Count         `json:"top_command,omitempty"`
	Tools         []Count        `json:"tools"`
	Commands      []Count        `json:"commands"`
	Daily         []DayCount     `json:"daily"`
	Session       SessionSummary `json:"current_session"`
}

// SessionSummary describes the current session.
type SessionSummary struct {
	ID        string    `json:"id,omitempty"`
	Started   time.Time `json:"started"`
	ToolCalls int       `json:"tool_calls"`
	Commands  []string  `json:"commands"`
}

// Summarize builds a report. Daily activity covers the days calendar days
// ending at now, oldest first, including days without activity; days <= 0
// includes every recorded day.
func Summarize(st *State, days int, now time.Time) Summary {
	sum := Summary{
		Created:       st.Created,
		LastUpdated:   st.LastUpdated,
		TotalSessions: st.TotalSessions,
		Tools:         ranked(st.Aggregate.ToolUsage),
		Commands:      ranked(st.Aggregate.CommandUsage),
		Session: SessionSummary{
			ID:        st.CurrentSession.ID,
			Started:   st.CurrentSession.Started,
			ToolCalls: total(st.CurrentSession.ToolsUsed),
			Commands:  st.CurrentSession.CommandsUsed,
		},
	}
	sum.ToolCalls = total(st.Aggregate.ToolUsage)
	sum.CommandCalls = total(st.Aggregate.CommandUsage)
	if len(sum.Tools) > 0 {
		top := sum.Tools[0]
		sum.TopTool = &top
	}
	if len(sum.Commands) > 0 {
		top := sum.Commands[0]
		sum.TopCommand = &top
	}
	sum.Daily = daily(st.Aggregate.DailyActivity, days, now)
	return sum
}

// ranked orders counters by count descending, then name ascending.
func ranked(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func daily(m map[string]int, days int, now time.Time) []DayCount {
	if days <= 0 {
		out := make([]DayCount, 0, len(m))
		for day, n := range m {
			out = append(out, DayCount{Day: day, Count: n})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
		return out
	}
	out := make([]DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(DayFormat)
		out = append(out, DayCount{Day: day, Count: m[day]})
	}
	return out
}
