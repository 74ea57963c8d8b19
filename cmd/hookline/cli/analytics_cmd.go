package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hookline/hookline/cmd/hookline/cli/analytics"
	"github.com/hookline/hookline/cmd/hookline/cli/jsonutil"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
	"github.com/hookline/hookline/cmd/hookline/cli/settings"
)

// reportFormat is the --format flag value.
type reportFormat string

const (
	formatText reportFormat = "text"
	formatJSON reportFormat = "json"
)

var _ pflag.Value = (*reportFormat)(nil)

func (f *reportFormat) String() string { return string(*f) }

func (f *reportFormat) Set(v string) error {
	switch reportFormat(strings.ToLower(v)) {
	case formatText, formatJSON:
		*f = reportFormat(strings.ToLower(v))
		return nil
	default:
		return fmt.Errorf("invalid format %q (want text or json)", v)
	}
}

func (f *reportFormat) Type() string { return "format" }

// maxBarWidth is the widest daily activity bar in the text report.
const maxBarWidth = 40

func newAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Inspect recorded tool usage",
	}
	cmd.AddCommand(newAnalyticsReportCmd())
	return cmd
}

func newAnalyticsReportCmd() *cobra.Command {
	format := formatText
	var days int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded tool and command usage",
		Long: `Summarize the analytics document: most used tool and command, totals, the
current session and daily activity. The document is read, never written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := paths.ProjectRoot("")
			cfg, err := settings.LoadAnalytics(root)
			if err != nil {
				return fmt.Errorf("loading analytics settings: %w", err)
			}

			st, err := analytics.NewStore(cfg.StatePath(root)).Load()
			if errors.Is(err, analytics.ErrNoState) {
				fmt.Fprintln(cmd.OutOrStdout(), "No analytics recorded yet.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading analytics: %w", err)
			}

			sum := analytics.Summarize(st, days, time.Now())
			w := cmd.OutOrStdout()
			if format == formatJSON {
				data, err := jsonutil.MarshalIndentWithNewline(sum, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding report: %w", err)
				}
				_, err = w.Write(data)
				return err //nolint:wrapcheck // write to stdout
			}
			writeReport(w, sum, days, isTerminal(w))
			return nil
		},
	}

	cmd.Flags().Var(&format, "format", "output format: text or json")
	cmd.Flags().IntVar(&days, "days", 7, "days of daily activity to show (0 for all)")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // Fd fits in int on supported platforms
}

type reportStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	bar   lipgloss.Style
	on    bool
}

func newReportStyles(on bool) reportStyles {
	return reportStyles{
		title: lipgloss.NewStyle().Bold(true),
		label: lipgloss.NewStyle().Faint(true),
		bar:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		on:    on,
	}
}

func (s reportStyles) render(style lipgloss.Style, text string) string {
	if !s.on {
		return text
	}
	return style.Render(text)
}

func writeReport(w io.Writer, sum analytics.Summary, days int, styled bool) {
	st := newReportStyles(styled)
	var sb strings.Builder

	sb.WriteString(st.render(st.title, "Hookline analytics") + "\n")
	field := func(label, value string) {
		fmt.Fprintf(&sb, "  %s %s\n", st.render(st.label, fmt.Sprintf("%-16s", label+":")), value)
	}
	field("Tracking since", fmt.Sprintf("%s (%s)", humanize.Time(sum.Created), sum.Created.Format(analytics.DayFormat)))
	field("Last updated", humanize.Time(sum.LastUpdated))
	field("Sessions", humanize.Comma(int64(sum.TotalSessions)))
	field("Tool calls", humanize.Comma(int64(sum.ToolCalls)))
	field("Command calls", humanize.Comma(int64(sum.CommandCalls)))
	field("Top tool", topLabel(sum.TopTool))
	field("Top command", topLabel(sum.TopCommand))

	writeCounts(&sb, st, "Tools", sum.Tools)
	writeCounts(&sb, st, "Commands", sum.Commands)

	if sum.Session.ID != "" {
		sb.WriteString("\n" + st.render(st.title, "Current session") + "\n")
		field("ID", sum.Session.ID)
		field("Started", humanize.Time(sum.Session.Started))
		field("Tool calls", humanize.Comma(int64(sum.Session.ToolCalls)))
		if len(sum.Session.Commands) > 0 {
			field("Commands", strings.Join(sum.Session.Commands, ", "))
		}
	}

	heading := "Daily activity"
	if days > 0 {
		heading = fmt.Sprintf("Daily activity (last %d days)", days)
	}
	sb.WriteString("\n" + st.render(st.title, heading) + "\n")
	peak := 0
	for _, d := range sum.Daily {
		peak = max(peak, d.Count)
	}
	for _, d := range sum.Daily {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("#", (d.Count*maxBarWidth+peak-1)/peak)
		}
		fmt.Fprintf(&sb, "  %s %6s %s\n", d.Day, humanize.Comma(int64(d.Count)), st.render(st.bar, bar))
	}

	_, _ = io.WriteString(w, sb.String()) //nolint:errcheck // stdout
}

func writeCounts(sb *strings.Builder, st reportStyles, title string, counts []analytics.Count) {
	if len(counts) == 0 {
		return
	}
	sb.WriteString("\n" + st.render(st.title, title) + "\n")
	width := 0
	for _, c := range counts {
		width = max(width, len(c.Name))
	}
	for _, c := range counts {
		fmt.Fprintf(sb, "  %-*s %6s\n", width, c.Name, humanize.Comma(int64(c.Count)))
	}
}

func topLabel(c *analytics.Count) string {
	if c == nil {
		return "none"
	}
	return fmt.Sprintf("%s (%s)", c.Name, humanize.Comma(int64(c.Count)))
}
