package testrun

import (
	"fmt"
	"os"
	"os/exec"
)

// SpawnDetached starts argv in the background, detached from the caller's
// session and stdio, and returns without waiting. The child is released so
// the caller can exit immediately.
func SpawnDetached(dir string, env []string, argv ...string) error {
	if len(argv) == 0 {
		return fmt.Errorf("spawn detached: empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // argv is built by hookline itself
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setDetached(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn detached: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("release detached process: %w", err)
	}
	return nil
}

// SelfArgv returns the argv that re-invokes the running hookline binary with args.
func SelfArgv(args ...string) ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return append([]string{exe}, args...), nil
}
