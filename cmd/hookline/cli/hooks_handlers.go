package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/hookline/hookline/cmd/hookline/cli/analytics"
	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/hookio"
	"github.com/hookline/hookline/cmd/hookline/cli/inject"
	"github.com/hookline/hookline/cmd/hookline/cli/keywords"
	"github.com/hookline/hookline/cmd/hookline/cli/logging"
	"github.com/hookline/hookline/cmd/hookline/cli/observe"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
	"github.com/hookline/hookline/cmd/hookline/cli/testrun"
)

// Hook names.
const (
	HookTestContext = "test-context"
	HookCommitGate  = "commit-gate"
	HookTestWatch   = "test-watch"
	HookAnalytics   = "analytics"
	HookCISuggest   = "ci-suggest"
	HookDocsCheck   = "docs-check"
)

// analyticsLockTimeout bounds how long a hook waits for the analytics lock.
const analyticsLockTimeout = 5 * time.Second

var editTools = []string{hookio.ToolWrite, hookio.ToolEdit, hookio.ToolMultiEdit}

// spawnDetached starts the watch child. Replaced in tests.
var spawnDetached = testrun.SpawnDetached

// init registers the hook catalogue.
//
//nolint:gochecknoinits // Hook registration at startup is the intended pattern
func init() {
	RegisterHook(&Hook{
		Name:   HookTestContext,
		Family: familyTesting,
		Phase:  hookio.PreToolUse,
		Tools:  []string{hookio.ToolTask},
		Act:    handleTestContext,
	})

	RegisterHook(&Hook{
		Name:     HookCommitGate,
		Family:   familyTesting,
		Phase:    hookio.PreToolUse,
		Tools:    []string{hookio.ToolBash},
		Match:    func(env *hookEnv) bool { return isGitCommit(env.event.Command()) },
		Enabled:  func(env *hookEnv) bool { return env.patterns.PreCommit.Enabled },
		CanBlock: true,
		Act:      handleCommitGate,
	})

	RegisterHook(&Hook{
		Name:    HookTestWatch,
		Family:  familyTesting,
		Phase:   hookio.PostToolUse,
		Tools:   editTools,
		Match:   func(env *hookEnv) bool { return env.changedFile() != "" },
		Enabled: func(env *hookEnv) bool { return env.patterns.WatchMode.Enabled },
		Silent:  true,
		Act:     handleTestWatch,
	})

	RegisterHook(&Hook{
		Name:    HookAnalytics,
		Family:  familyAnalytics,
		Phase:   hookio.PostToolUse,
		Tools:   []string{AnyTool},
		Enabled: func(env *hookEnv) bool { return env.analytics.Enabled },
		Silent:  true,
		Act:     handleAnalytics,
	})

	RegisterHook(&Hook{
		Name:   HookCISuggest,
		Family: familyCI,
		Phase:  hookio.PostToolUse,
		Tools:  editTools,
		Match:  func(env *hookEnv) bool { return observe.IsCIConfig(env.changedFile()) },
		Silent: true,
		Act:    handleCISuggest,
	})

	RegisterHook(&Hook{
		Name:   HookDocsCheck,
		Family: familyDocs,
		Phase:  hookio.PostToolUse,
		Tools:  editTools,
		Match:  func(env *hookEnv) bool { return observe.IsDocFile(env.changedFile()) },
		Silent: true,
		Act:    handleDocsCheck,
	})
}

func handleTestContext(env *hookEnv, _ *hookio.Gate) (hookio.Decision, error) {
	res := detect.Detect(env.root)
	updated, ok := inject.MaybeInject(env.event, res)
	if !ok {
		logging.Info(env.ctx, "context_not_injected")
		return hookio.Continue(), nil
	}

	tags := keywords.Match(env.event.Prompt())
	logging.Info(env.ctx, "context_injected",
		slog.String("framework", string(res.TestFramework)),
		slog.Any("tags", tags),
		slog.Any("test_dirs", res.TestDirs),
	)
	return hookio.ContinueWith(updated.ToolInput), nil
}

func handleCommitGate(env *hookEnv, gate *hookio.Gate) (hookio.Decision, error) {
	res := detect.Detect(env.root)
	if !testrun.Supported(res.TestFramework) {
		logging.Info(env.ctx, "test_run_skipped",
			slog.String("outcome", string(testrun.Unsupported)),
			slog.String("project", res.Describe()),
		)
		return hookio.Continue(), nil
	}

	cfg := env.patterns.PreCommit
	spec := testrun.Spec{
		Framework:      res.TestFramework,
		PackageManager: res.PackageManager,
		Dir:            env.root,
		Timeout:        cfg.Timeout(),
	}
	if argv, ok := env.patterns.CommandFor(string(res.TestFramework)); ok {
		spec.Override = argv
	}
	if cfg.Scoped() {
		files, err := paths.StagedFiles(env.root, commitAll(env.event.Command()))
		if err != nil {
			logging.Warn(env.ctx, "staged_files_unavailable", slog.String("error", err.Error()))
		}
		spec.Scope = files
	}

	logging.Debug(env.ctx, "test_run_started",
		slog.String("framework", string(res.TestFramework)),
		slog.Int("scope", len(spec.Scope)),
	)
	outcome := testrun.Run(env.ctx, spec)
	logOutcome(env.ctx, "test_run_completed", outcome)

	if outcome.Kind != testrun.Failed {
		return hookio.Continue(), nil
	}
	return gate.Block(blockReason(outcome)), nil
}

func blockReason(o testrun.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed (exit code %d). Fix the failing tests before committing.", o.Label, o.ExitCode)
	if o.Summary != "" {
		sb.WriteString("\n\n")
		sb.WriteString(o.Summary)
	}
	return sb.String()
}

func handleTestWatch(env *hookEnv, _ *hookio.Gate) (hookio.Decision, error) {
	rel := env.changedFile()
	res := detect.Detect(env.root)
	if !testrun.Supported(res.TestFramework) {
		logging.Info(env.ctx, "watch_skipped", slog.String("reason", "no test framework"))
		return hookio.NoDecision(), nil
	}

	testFile, ok := testrun.RelatedTest(env.root, rel)
	if !ok {
		logging.Info(env.ctx, "watch_skipped",
			slog.String("reason", "no related test"),
			slog.String("file", rel),
		)
		return hookio.NoDecision(), nil
	}

	argv, err := testrun.SelfArgv("hooks", watchRunCmdName, "--file", testFile)
	if err != nil {
		return hookio.NoDecision(), err
	}
	envVars := []string{
		paths.RootEnvVar + "=" + env.root,
		invocationEnvVar + "=" + logging.InvocationIDFromContext(env.ctx),
	}
	if err := spawnDetached(env.root, envVars, argv...); err != nil {
		return hookio.NoDecision(), err
	}

	logging.Info(env.ctx, "watch_run_spawned",
		slog.String("file", rel),
		slog.String("test_file", testFile),
	)
	return hookio.NoDecision(), nil
}

func handleAnalytics(env *hookEnv, _ *hookio.Gate) (hookio.Decision, error) {
	entries := []analytics.Entry{analytics.Tool(env.event.ToolName)}
	switch env.event.ToolName {
	case hookio.ToolTask:
		if tag, ok := keywords.First(env.event.Prompt()); ok {
			entries = append(entries, analytics.Command(string(tag)))
		}
	case hookio.ToolSlashCommand:
		if name := slashCommandName(env.event.Command()); name != "" {
			entries = append(entries, analytics.Command(name))
		}
	}

	ctx, cancel := context.WithTimeout(env.ctx, analyticsLockTimeout)
	defer cancel()

	store := analytics.NewStore(env.analytics.StatePath(env.root))
	st, err := store.Record(ctx, env.event.SessionID, entries...)
	if err != nil {
		return hookio.NoDecision(), fmt.Errorf("record usage: %w", err)
	}

	logging.Debug(env.ctx, "usage_recorded",
		slog.Int("entries", len(entries)),
		slog.Int("tool_count", st.Aggregate.ToolUsage[env.event.ToolName]),
		slog.Int("total_sessions", st.TotalSessions),
	)
	return hookio.NoDecision(), nil
}

func handleCISuggest(env *hookEnv, _ *hookio.Gate) (hookio.Decision, error) {
	rel := env.changedFile()
	report, err := observe.SuggestCI(env.root, rel, detect.Detect(env.root))
	if err != nil {
		return hookio.NoDecision(), err //nolint:wrapcheck // already wrapped by observe
	}

	for _, s := range report.Suggestions {
		logging.Info(env.ctx, "ci_suggestion",
			slog.String("file", report.Path),
			slog.String("ecosystem", string(s.Ecosystem)),
			slog.String("command", s.Command),
		)
	}
	if len(report.Suggestions) == 0 {
		logging.Info(env.ctx, "ci_config_ok", slog.String("file", report.Path))
	}
	return hookio.NoDecision(), nil
}

func handleDocsCheck(env *hookEnv, _ *hookio.Gate) (hookio.Decision, error) {
	report, err := observe.ValidateDoc(env.ctx, env.root, env.changedFile())
	if err != nil {
		return hookio.NoDecision(), err //nolint:wrapcheck // already wrapped by observe
	}

	if len(report.BrokenLinks) > 0 {
		logging.Warn(env.ctx, "doc_broken_links",
			slog.String("file", report.Path),
			slog.Any("links", report.BrokenLinks),
		)
	}
	if len(report.StaleSources) > 0 {
		logging.Warn(env.ctx, "doc_possibly_stale",
			slog.String("file", report.Path),
			slog.Any("newer_sources", report.StaleSources),
		)
	}
	logging.Info(env.ctx, "doc_checked",
		slog.String("file", report.Path),
		slog.Int("checked_links", report.CheckedLinks),
		slog.Int("broken_links", len(report.BrokenLinks)),
		slog.Int("stale_sources", len(report.StaleSources)),
	)
	return hookio.NoDecision(), nil
}

func logOutcome(ctx context.Context, eventType string, o testrun.Outcome) {
	level := slog.LevelInfo
	if o.Kind == testrun.Failed || o.Kind == testrun.Timeout {
		level = slog.LevelWarn
	}
	attrs := []any{
		slog.String("outcome", string(o.Kind)),
		slog.String("label", o.Label),
		slog.Any("command", o.Command),
		slog.Int("exit_code", o.ExitCode),
		slog.Duration("duration", o.Duration),
	}
	if o.Kind != testrun.Passed && o.Summary != "" {
		attrs = append(attrs, slog.String("summary", o.Summary))
	}
	switch level {
	case slog.LevelWarn:
		logging.Warn(ctx, eventType, attrs...)
	default:
		logging.Info(ctx, eventType, attrs...)
	}
}

// commandSegments splits a shell command line into simple commands at
// newlines and control operators, then into words. Unbalanced quoting falls
// back to whitespace splitting.
func commandSegments(command string) [][]string {
	var segments [][]string
	for _, piece := range splitControl(command) {
		words, err := shlex.Split(piece)
		if err != nil {
			words = strings.Fields(piece)
		}
		if len(words) > 0 {
			segments = append(segments, words)
		}
	}
	return segments
}

// splitControl cuts command at unquoted newlines and at ; & | whether or not
// they touch a word. Redirections such as 2>&1 and >& stay intact, and a
// backslash-newline continues the line.
func splitControl(command string) []string {
	var (
		pieces []string
		cur    strings.Builder
		quote  rune
	)
	flush := func() {
		pieces = append(pieces, cur.String())
		cur.Reset()
	}
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote == '\'':
			if r == '\'' {
				quote = 0
			}
		case r == '\\' && i+1 < len(runes):
			i++
			if runes[i] == '\n' {
				continue
			}
			cur.WriteRune(r)
			r = runes[i]
		case quote == '"':
			if r == '"' {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '&' && ((i > 0 && strings.ContainsRune("<>", runes[i-1])) || (i+1 < len(runes) && runes[i+1] == '>')):
		case r == '\n' || r == '\r' || r == ';' || r == '&' || r == '|':
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return pieces
}

// gitCommitArgs returns the arguments after "git [global options] commit"
// in the first segment that runs a commit.
func gitCommitArgs(command string) ([]string, bool) {
	for _, seg := range commandSegments(command) {
		i := 0
		// Skip leading VAR=value assignments.
		for i < len(seg) && strings.Contains(seg[i], "=") && !strings.HasPrefix(seg[i], "-") {
			i++
		}
		if i >= len(seg) || seg[i] != "git" {
			continue
		}
		i++
		for i < len(seg) && strings.HasPrefix(seg[i], "-") {
			switch seg[i] {
			case "-C", "-c", "--git-dir", "--work-tree", "--namespace":
				i++
			}
			i++
		}
		if i < len(seg) && seg[i] == "commit" {
			return seg[i+1:], true
		}
	}
	return nil, false
}

func isGitCommit(command string) bool {
	_, ok := gitCommitArgs(command)
	return ok
}

// commitAll reports whether the commit stages modified tracked files itself
// (-a, --all, or a short-flag cluster such as -am).
func commitAll(command string) bool {
	args, ok := gitCommitArgs(command)
	if !ok {
		return false
	}
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-a" || a == "--all" {
			return true
		}
		if strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--") {
			for _, r := range a[1:] {
				if r == 'a' {
					return true
				}
				// Flags that take a value end the cluster.
				if strings.ContainsRune("mFcCtS", r) {
					break
				}
			}
		}
	}
	return false
}

// slashCommandName extracts "review" from "/review src/main.go".
func slashCommandName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[0], "/")
}
