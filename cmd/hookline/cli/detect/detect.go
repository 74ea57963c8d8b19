// Package detect classifies a project directory by probing marker files.
//
// Detection is a pure function of the filesystem snapshot: it never writes,
// never caches, and never fails. A directory with no recognised markers yields
// an empty Result.
package detect

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"
)

// Ecosystem is a language/package ecosystem.
type Ecosystem string

const (
	EcosystemGo     Ecosystem = "go"
	EcosystemPython Ecosystem = "python"
	EcosystemNode   Ecosystem = "node"
	EcosystemRust   Ecosystem = "rust"
	EcosystemRuby   Ecosystem = "ruby"
	EcosystemJava   Ecosystem = "java"
	EcosystemPHP    Ecosystem = "php"
)

// Framework is a test framework.
type Framework string

const (
	FrameworkPytest   Framework = "pytest"
	FrameworkVitest   Framework = "vitest"
	FrameworkJest     Framework = "jest"
	FrameworkMocha    Framework = "mocha"
	FrameworkGo       Framework = "go"
	FrameworkCargo    Framework = "cargo"
	FrameworkRSpec    Framework = "rspec"
	FrameworkMaven    Framework = "maven"
	FrameworkGradle   Framework = "gradle"
	FrameworkPHPUnit  Framework = "phpunit"
	FrameworkUnittest Framework = "unittest"
)

// PackageManager is the tool that installs dependencies and usually runs
// project binaries.
type PackageManager string

const (
	PackageManagerBun      PackageManager = "bun"
	PackageManagerPnpm     PackageManager = "pnpm"
	PackageManagerYarn     PackageManager = "yarn"
	PackageManagerNPM      PackageManager = "npm"
	PackageManagerPoetry   PackageManager = "poetry"
	PackageManagerUV       PackageManager = "uv"
	PackageManagerPipenv   PackageManager = "pipenv"
	PackageManagerPip      PackageManager = "pip"
	PackageManagerCargo    PackageManager = "cargo"
	PackageManagerGo       PackageManager = "go"
	PackageManagerBundler  PackageManager = "bundler"
	PackageManagerMaven    PackageManager = "maven"
	PackageManagerGradle   PackageManager = "gradle"
	PackageManagerComposer PackageManager = "composer"
)

// Result is the classification of one project root.
type Result struct {
	Ecosystems     []Ecosystem    `json:"ecosystems"`
	TestFramework  Framework      `json:"test_framework,omitempty"`
	PackageManager PackageManager `json:"package_manager,omitempty"`
	TestDirs       []string       `json:"test_dirs,omitempty"`
	TestConfigs    []string       `json:"test_configs,omitempty"`
	GoModule       string         `json:"go_module,omitempty"`
}

// HasEcosystem reports whether e was detected.
func (r Result) HasEcosystem(e Ecosystem) bool {
	return slices.Contains(r.Ecosystems, e)
}

// Empty reports whether nothing at all was recognised.
func (r Result) Empty() bool {
	return len(r.Ecosystems) == 0 && r.TestFramework == "" && r.PackageManager == ""
}

// Describe renders a one-line summary such as "go (go test, go modules)".
func (r Result) Describe() string {
	if r.Empty() {
		return "unknown project"
	}
	eco := make([]string, len(r.Ecosystems))
	for i, e := range r.Ecosystems {
		eco[i] = string(e)
	}
	var extra []string
	if r.TestFramework != "" {
		extra = append(extra, "tests: "+string(r.TestFramework))
	}
	if r.PackageManager != "" {
		extra = append(extra, "packages: "+string(r.PackageManager))
	}
	desc := strings.Join(eco, "+")
	if desc == "" {
		desc = "unknown"
	}
	if len(extra) > 0 {
		desc += " (" + strings.Join(extra, ", ") + ")"
	}
	return desc
}

// Detect classifies root. Each category is checked independently.
func Detect(root string) Result {
	p := tree{root: root}
	r := Result{
		Ecosystems:     detectEcosystems(p),
		PackageManager: detectPackageManager(p),
		TestDirs:       detectTestDirs(p),
		TestConfigs:    detectTestConfigs(root),
		GoModule:       goModulePath(p),
	}
	r.TestFramework = detectFramework(p, r.Ecosystems)
	return r
}

func detectEcosystems(p tree) []Ecosystem {
	var found []Ecosystem
	for _, m := range ecosystemMarkers {
		if p.anyFile(m.files...) {
			found = append(found, m.ecosystem)
		}
	}
	slices.Sort(found)
	return found
}

func detectPackageManager(p tree) PackageManager {
	for _, m := range packageManagerMarkers {
		if p.anyFile(m.files...) {
			return m.manager
		}
	}
	return ""
}

func detectTestDirs(p tree) []string {
	var dirs []string
	for _, d := range testDirCandidates {
		if p.dir(d) {
			dirs = append(dirs, d+"/")
		}
	}
	return dirs
}

func goModulePath(p tree) string {
	data, ok := p.read("go.mod")
	if !ok {
		return ""
	}
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil || f.Module == nil {
		return ""
	}
	return f.Module.Mod.Path
}

// tree answers existence questions relative to a root.
type tree struct {
	root string
}

func (p tree) path(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

func (p tree) file(rel string) bool {
	info, err := os.Stat(p.path(rel))
	return err == nil && !info.IsDir()
}

func (p tree) dir(rel string) bool {
	info, err := os.Stat(p.path(rel))
	return err == nil && info.IsDir()
}

func (p tree) anyFile(rels ...string) bool {
	for _, rel := range rels {
		if p.file(rel) {
			return true
		}
	}
	return false
}

func (p tree) read(rel string) ([]byte, bool) {
	data, err := os.ReadFile(p.path(rel))
	if err != nil {
		return nil, false
	}
	return data, true
}
