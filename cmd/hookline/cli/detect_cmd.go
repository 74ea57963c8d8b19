package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
	"github.com/hookline/hookline/cmd/hookline/cli/jsonutil"
	"github.com/hookline/hookline/cmd/hookline/cli/paths"
	"github.com/hookline/hookline/cmd/hookline/cli/testrun"
)

func newDetectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect [dir]",
		Short: "Show what hookline detects about a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint := ""
			if len(args) == 1 {
				hint = args[0]
			}
			root := paths.ProjectRoot(hint)
			res := detect.Detect(root)
			w := cmd.OutOrStdout()

			if asJSON {
				data, err := jsonutil.MarshalIndentWithNewline(res, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding detection result: %w", err)
				}
				_, err = w.Write(data)
				return err //nolint:wrapcheck // write to stdout
			}

			fmt.Fprintf(w, "Project:          %s\n", root)
			fmt.Fprintf(w, "Detected:         %s\n", res.Describe())
			if res.TestFramework != "" {
				cmdline := strings.Join(testrun.Argv(testrun.Spec{
					Framework:      res.TestFramework,
					PackageManager: res.PackageManager,
					Dir:            root,
				}), " ")
				if cmdline == "" {
					cmdline = "(unsupported)"
				}
				fmt.Fprintf(w, "Test command:     %s\n", cmdline)
			}
			fmt.Fprintf(w, "Test directories: %s\n", listOrNone(res.TestDirs))
			fmt.Fprintf(w, "Test configs:     %s\n", listOrNone(res.TestConfigs))
			if res.GoModule != "" {
				fmt.Fprintf(w, "Go module:        %s\n", res.GoModule)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the detection result as JSON")

	return cmd
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
