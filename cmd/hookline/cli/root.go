package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const gettingStarted = `

Getting Started:
  Register 'hookline hooks <name>' commands with your agent's PreToolUse and
  PostToolUse hooks, then configure behaviour under .hookline/ in the project:

    test-patterns.json   pre_commit, watch_mode and per-framework commands
    analytics.json       usage tracking
    settings.json        log level, log directory, disabled hooks

`

const environmentHelp = `
Environment Variables:
  HOOKLINE_ROOT        Project root, overriding the event's working directory.
  HOOKLINE_LOG_LEVEL   DEBUG, INFO, WARN or ERROR.
  HOOKLINE_LOGS_DIR    Log directory, relative to the project root unless absolute.
  HOOKLINE_DISABLED    Comma-separated hook names that always continue.
`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookline",
		Short: "Lifecycle hooks for coding agents",
		Long:  "Test-aware lifecycle hooks for coding agent tool calls" + gettingStarted + environmentHelp,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		SilenceUsage:  true,
		// Hide completion command from help but keep it functional
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newAnalyticsCmd())
	cmd.AddCommand(newDetectCmd())
	cmd.AddCommand(newPreviewInjectionCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "hookline %s (%s)\n", Version, Commit)
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
