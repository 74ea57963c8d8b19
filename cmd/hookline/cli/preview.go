package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/hookio"
	"github.com/hookline/hookline/cmd/hookline/cli/inject"
	"github.com/hookline/hookline/cmd/hookline/cli/keywords"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
)

func newPreviewInjectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview-injection <prompt>",
		Short: "Show how test-context would rewrite a Task prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			root := paths.ProjectRoot("")
			w := cmd.OutOrStdout()
			return previewInjection(w, prompt, detect.Detect(root), isTerminal(w))
		},
	}
}

func previewInjection(w io.Writer, prompt string, res detect.Result, styled bool) error {
	input, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return fmt.Errorf("encoding prompt: %w", err)
	}
	ev := &hookio.Event{ToolName: hookio.ToolTask, ToolInput: input}

	updated, ok := inject.MaybeInject(ev, res)
	if !ok {
		fmt.Fprintln(w, "No testing keywords matched; the prompt passes through unchanged.")
		return nil
	}

	tags := make([]string, 0)
	for _, t := range keywords.Match(prompt) {
		tags = append(tags, string(t))
	}
	fmt.Fprintf(w, "Matched: %s\n\n", strings.Join(tags, ", "))

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prompt, updated.Prompt(), false)
	if styled {
		fmt.Fprintln(w, dmp.DiffPrettyText(diffs))
		return nil
	}
	writePlainDiff(w, diffs)
	return nil
}

// writePlainDiff prints each diff chunk line by line with a +, - or space
// marker.
func writePlainDiff(w io.Writer, diffs []diffmatchpatch.Diff) {
	for _, d := range diffs {
		marker := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			marker = "+ "
		case diffmatchpatch.DiffDelete:
			marker = "- "
		case diffmatchpatch.DiffEqual:
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, marker+line)
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
}
