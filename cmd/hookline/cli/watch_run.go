package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/logging"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
	"github.com/hookline/hookline/cmd/hookline/cli/settings"
	"github.com/hookline/hookline/cmd/hookline/cli/testrun"
)

const watchRunCmdName = "watch-run"

// invocationEnvVar carries the spawning hook's invocation id to the child.
const invocationEnvVar = "HOOKLINE_PARENT_INVOCATION"

// Environment passed to watch_mode.notify_command.
const (
	outcomeEnvVar  = "HOOKLINE_OUTCOME"
	testFileEnvVar = "HOOKLINE_TEST_FILE"
)

func newWatchRunCmd() *cobra.Command {
	var testFile string

	cmd := &cobra.Command{
		Use:    watchRunCmdName,
		Short:  "Run one test file in the background (spawned by test-watch)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if testFile == "" {
				return errors.New("--file is required")
			}
			root := paths.ProjectRoot("")
			runWatch(cmd.Context(), root, testFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&testFile, "file", "", "root-relative test file to run")

	return cmd
}

// runWatch runs testFile under the watch timeout and records the outcome in
// the watch-runs log. The outcome goes nowhere else except the optional
// notify command.
func runWatch(ctx context.Context, root, testFile string) testrun.Outcome {
	s, sErr := settings.Load(root)
	tp, tpErr := settings.LoadTestPatterns(root)

	logging.SetLogLevelGetter(func() string { return s.LogLevel })
	_ = logging.Init(s.LogsPath(root), familyWatchRuns) //nolint:errcheck // family name is a constant
	defer logging.Close()

	ctx = logging.WithComponent(logging.WithInvocation(ctx), familyWatchRuns)
	logging.Debug(ctx, "watch_run_started",
		slog.String("test_file", testFile),
		slog.String("parent_invocation", os.Getenv(invocationEnvVar)),
	)
	for _, err := range []error{sErr, tpErr} {
		if err != nil {
			logging.Warn(ctx, "config_invalid", slog.String("error", err.Error()))
		}
	}

	res := detect.Detect(root)
	label := testrun.Label(res.TestFramework)
	argv, ok := tp.CommandFor(string(res.TestFramework))
	if ok {
		argv = testrun.SingleFileArgvWith(res.TestFramework, argv, testFile)
	} else {
		argv = testrun.SingleFileArgv(res.TestFramework, res.PackageManager, root, testFile)
	}

	start := time.Now()
	outcome := testrun.RunArgv(ctx, label, argv, root, tp.WatchMode.Timeout())
	logOutcome(ctx, "watch_run_completed", outcome)
	logging.LogDuration(ctx, slog.LevelDebug, "watch_run_finished", start,
		slog.String("test_file", testFile),
	)

	if notify := tp.WatchMode.NotifyCommand; len(notify) > 0 {
		env := []string{
			outcomeEnvVar + "=" + string(outcome.Kind),
			testFileEnvVar + "=" + testFile,
		}
		if err := testrun.SpawnDetached(root, env, notify...); err != nil {
			logging.Warn(ctx, "notify_failed", slog.String("error", err.Error()))
		}
	}
	return outcome
}
