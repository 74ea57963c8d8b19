package detect

import (
	"io/fs"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

type ecosystemMarker struct {
	ecosystem Ecosystem
	files     []string
}

var ecosystemMarkers = []ecosystemMarker{
	{EcosystemGo, []string{"go.mod"}},
	{EcosystemPython, []string{"pyproject.toml", "setup.py", "setup.cfg", "requirements.txt", "Pipfile"}},
	{EcosystemNode, []string{"package.json"}},
	{EcosystemRust, []string{"Cargo.toml"}},
	{EcosystemRuby, []string{"Gemfile"}},
	{EcosystemJava, []string{"pom.xml", "build.gradle", "build.gradle.kts"}},
	{EcosystemPHP, []string{"composer.json"}},
}

type packageManagerMarker struct {
	manager PackageManager
	files   []string
}

// Lock files come before manifests so the more specific marker wins.
var packageManagerMarkers = []packageManagerMarker{
	{PackageManagerBun, []string{"bun.lockb", "bun.lock"}},
	{PackageManagerPnpm, []string{"pnpm-lock.yaml"}},
	{PackageManagerYarn, []string{"yarn.lock"}},
	{PackageManagerNPM, []string{"package-lock.json"}},
	{PackageManagerPoetry, []string{"poetry.lock"}},
	{PackageManagerUV, []string{"uv.lock"}},
	{PackageManagerPipenv, []string{"Pipfile.lock"}},
	{PackageManagerPip, []string{"requirements.txt"}},
	{PackageManagerCargo, []string{"Cargo.lock", "Cargo.toml"}},
	{PackageManagerGo, []string{"go.mod"}},
	{PackageManagerBundler, []string{"Gemfile.lock"}},
	{PackageManagerMaven, []string{"pom.xml"}},
	{PackageManagerGradle, []string{"build.gradle", "build.gradle.kts"}},
	{PackageManagerComposer, []string{"composer.lock"}},
	{PackageManagerNPM, []string{"package.json"}},
}

var testDirCandidates = []string{
	"tests", "test", "__tests__", "spec", "testing", "e2e", "integration", "src/test",
}

// testConfigPattern matches test-runner configuration files at the root.
const testConfigPattern = "{" +
	"pytest.ini,conftest.py,tox.ini,.coveragerc," +
	"jest.config.*,vitest.config.*,vitest.workspace.*,.mocharc.*,karma.conf.*," +
	"playwright.config.*,cypress.config.*," +
	".rspec,phpunit.xml,phpunit.xml.dist,.nycrc,.nycrc.*,codecov.yml" +
	"}"

func detectTestConfigs(root string) []string {
	return globRoot(os.DirFS(root), testConfigPattern)
}

// globRoot returns sorted regular-file matches of pattern in fsys.
func globRoot(fsys fs.FS, pattern string) []string {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil || len(matches) == 0 {
		return nil
	}
	slices.Sort(matches)
	return matches
}
