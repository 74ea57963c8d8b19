package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/cmd/hookline/cli/testutil"
)

func TestRepoRoot_FromSubdirectory(t *testing.T) {
	dir := testutil.ResolvedTempDir(t)
	testutil.InitRepo(t, dir)
	sub := filepath.Join(dir, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := RepoRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestRepoRoot_NotRepository(t *testing.T) {
	_, err := RepoRoot(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}

func TestProjectRoot(t *testing.T) {
	repo := testutil.ResolvedTempDir(t)
	testutil.InitRepo(t, repo)
	plain := t.TempDir()

	t.Run("env wins", func(t *testing.T) {
		t.Setenv(RootEnvVar, "/pinned")
		assert.Equal(t, "/pinned", ProjectRoot(repo))
	})
	t.Run("repository of hint", func(t *testing.T) {
		t.Setenv(RootEnvVar, "")
		sub := filepath.Join(repo, "a")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		assert.Equal(t, repo, ProjectRoot(sub))
	})
	t.Run("hint outside repository", func(t *testing.T) {
		t.Setenv(RootEnvVar, "")
		assert.Equal(t, plain, ProjectRoot(plain))
	})
	t.Run("empty hint uses working directory", func(t *testing.T) {
		t.Setenv(RootEnvVar, "")
		t.Chdir(repo)
		assert.Equal(t, repo, ProjectRoot(""))
	})
}

func TestStagedFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.InitRepo(t, dir)
	testutil.WriteFile(t, dir, "tracked.go", "package a\n")
	testutil.WriteFile(t, dir, "gone.go", "package a\n")
	testutil.GitAdd(t, dir, "tracked.go", "gone.go")
	testutil.GitCommit(t, dir, "initial")

	testutil.WriteFile(t, dir, "tracked.go", "package a\n\nvar X = 1\n")
	testutil.WriteFile(t, dir, "new.go", "package a\n")
	testutil.WriteFile(t, dir, "untracked.go", "package a\n")
	testutil.GitAdd(t, dir, "new.go")
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.go")))

	staged, err := StagedFiles(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.go"}, staged)

	all, err := StagedFiles(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.go", "tracked.go"}, all)
}

func TestToRelativePath(t *testing.T) {
	t.Parallel()
	root := filepath.FromSlash("/repo")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"inside", filepath.FromSlash("/repo/src/foo.go"), "src/foo.go"},
		{"outside", filepath.FromSlash("/elsewhere/foo.go"), ""},
		{"parent-like name", filepath.FromSlash("/repo/..foo/x.go"), "..foo/x.go"},
		{"relative passthrough", "src/./foo.go", "src/foo.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToRelativePath(tt.path, root))
		})
	}
}

func TestIsInfrastructurePath(t *testing.T) {
	t.Parallel()
	assert.True(t, IsInfrastructurePath(".hookline"))
	assert.True(t, IsInfrastructurePath(".hookline/logs/testing.jsonl"))
	assert.False(t, IsInfrastructurePath(".hooklinex/a"))
	assert.False(t, IsInfrastructurePath("src/.hookline"))
}
