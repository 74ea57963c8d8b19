package cli

import (
	"github.com/spf13/cobra"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hooks",
		Short:  "Hook handlers",
		Long:   "Commands called by the agent's hooks. These are internal and not for direct user use.",
		Hidden: true, // Internal command, not for direct user use
	}

	for _, name := range HookNames() {
		cmd.AddCommand(newHookVerbCmd(GetHook(name)))
	}
	cmd.AddCommand(newWatchRunCmd())

	return cmd
}

// newHookVerbCmd creates the command the host invokes for one hook. The
// event arrives on stdin; the decision leaves on stdout plus the exit code.
func newHookVerbCmd(h *Hook) *cobra.Command {
	return &cobra.Command{
		Use:   h.Name,
		Short: "Called on " + string(h.Phase) + " for " + h.Name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code := dispatch(cmd.Context(), h, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != 0 {
				return &ExitCodeError{Code: code}
			}
			return nil
		},
	}
}
