// Package paths resolves the project root a hook operates on and the files a
// commit would include.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// RootEnvVar pins the project root regardless of the event's cwd.
const RootEnvVar = "HOOKLINE_ROOT"

// InfraDir is hookline's own directory inside a project.
const InfraDir = ".hookline"

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// RepoRoot returns the work tree root of the git repository containing dir.
func RepoRoot(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return "", fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// ProjectRoot picks the directory hooks treat as the project:
// HOOKLINE_ROOT if set, else the repository containing hint (the event's cwd),
// else hint itself, else the process working directory.
func ProjectRoot(hint string) string {
	if root := os.Getenv(RootEnvVar); root != "" {
		return root
	}
	if hint == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		hint = wd
	}
	if root, err := RepoRoot(hint); err == nil {
		return root
	}
	return hint
}

// StagedFiles lists the repository-relative paths a commit would contain:
// every staged addition or modification, plus modified tracked files when
// includeModified is set (git commit -a). Deletions are omitted. The result
// is sorted.
func StagedFiles(root string, includeModified bool) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	var files []string
	for path, st := range status {
		switch st.Staging {
		case git.Added, git.Modified, git.Copied, git.Renamed:
			files = append(files, path)
			continue
		}
		if includeModified && st.Staging != git.Untracked && st.Worktree == git.Modified {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsInfrastructurePath reports whether a relative path is inside .hookline.
func IsInfrastructurePath(path string) bool {
	path = filepath.ToSlash(path)
	return strings.HasPrefix(path, InfraDir+"/") || path == InfraDir
}

// ToRelativePath converts path to a slash-separated path relative to root.
// Relative inputs are returned cleaned. Returns "" if path is outside root.
func ToRelativePath(path, root string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}
