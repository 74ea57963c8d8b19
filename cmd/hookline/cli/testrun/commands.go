package testrun

import (
	"path"
	"slices"
	"strings"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
)

// runner groups frameworks by how their binaries are launched.
type runner int

const (
	runnerDirect runner = iota
	runnerNode
	runnerPython
	runnerRuby
)

// command describes how to run one framework.
type command struct {
	label  string
	runner runner
	full   func(root string) []string
	// scoped narrows a run to changed files; nil or an empty result means the
	// framework runs its full suite.
	scoped func(root string, files []string) []string
}

func fixed(argv ...string) func(string) []string {
	return func(string) []string { return argv }
}

var commands = map[detect.Framework]command{
	detect.FrameworkPytest: {
		label:  "pytest",
		runner: runnerPython,
		full:   fixed("pytest"),
		scoped: func(root string, files []string) []string {
			return withArgs([]string{"pytest"}, relatedTests(root, files, ".py"))
		},
	},
	detect.FrameworkUnittest: {
		label:  "python -m unittest",
		runner: runnerPython,
		full:   fixed("python", "-m", "unittest"),
	},
	detect.FrameworkVitest: {
		label:  "vitest",
		runner: runnerNode,
		full:   fixed("vitest", "run"),
		scoped: func(_ string, files []string) []string {
			return withArgs([]string{"vitest", "related", "--run"}, filterExt(files, jsExts...))
		},
	},
	detect.FrameworkJest: {
		label:  "jest",
		runner: runnerNode,
		full:   fixed("jest"),
		scoped: func(_ string, files []string) []string {
			return withArgs([]string{"jest", "--findRelatedTests"}, filterExt(files, jsExts...))
		},
	},
	detect.FrameworkMocha: {
		label:  "mocha",
		runner: runnerNode,
		full:   fixed("mocha"),
		scoped: func(root string, files []string) []string {
			return withArgs([]string{"mocha"}, relatedTests(root, files, jsExts...))
		},
	},
	detect.FrameworkGo: {
		label: "go test",
		full:  fixed("go", "test", "./..."),
		scoped: func(_ string, files []string) []string {
			return withArgs([]string{"go", "test"}, goPackages(files))
		},
	},
	detect.FrameworkCargo: {
		label: "cargo test",
		full:  fixed("cargo", "test"),
	},
	detect.FrameworkRSpec: {
		label:  "rspec",
		runner: runnerRuby,
		full:   fixed("rspec"),
		scoped: func(root string, files []string) []string {
			return withArgs([]string{"rspec"}, relatedTests(root, files, ".rb"))
		},
	},
	detect.FrameworkMaven: {
		label: "mvn test",
		full: func(root string) []string {
			return []string{wrapperOr(root, "mvnw", "mvn"), "-q", "test"}
		},
	},
	detect.FrameworkGradle: {
		label: "gradle test",
		full: func(root string) []string {
			return []string{wrapperOr(root, "gradlew", "gradle"), "test"}
		},
	},
	detect.FrameworkPHPUnit: {
		label: "phpunit",
		full: func(root string) []string {
			return []string{phpunitBinary(root)}
		},
		scoped: func(root string, files []string) []string {
			tests := relatedTests(root, files, ".php")
			if len(tests) != 1 {
				return nil
			}
			return []string{phpunitBinary(root), tests[0]}
		},
	},
}

var jsExts = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

// Label returns the human name of a framework's test command, e.g. "go test".
func Label(f detect.Framework) string {
	if c, ok := commands[f]; ok {
		return c.label
	}
	return string(f)
}

// Supported reports whether the framework has a command.
func Supported(f detect.Framework) bool {
	_, ok := commands[f]
	return ok
}

// Argv builds the command line for spec. Overrides win and are used verbatim.
// Returns nil when the framework is unknown.
func Argv(spec Spec) []string {
	if len(spec.Override) > 0 {
		return slices.Clone(spec.Override)
	}
	c, ok := commands[spec.Framework]
	if !ok {
		return nil
	}
	var argv []string
	if len(spec.Scope) > 0 && c.scoped != nil {
		argv = c.scoped(spec.Dir, spec.Scope)
	}
	if len(argv) == 0 {
		argv = c.full(spec.Dir)
	}
	return append(prefix(c.runner, spec.PackageManager), argv...)
}

// SingleFileArgv builds a command that runs one test artifact.
func SingleFileArgv(f detect.Framework, pm detect.PackageManager, root, testFile string) []string {
	c, ok := commands[f]
	if !ok {
		return nil
	}
	var base []string
	switch f {
	case detect.FrameworkGo:
		base = []string{"go", "test"}
	case detect.FrameworkUnittest:
		base = []string{"python", "-m", "unittest"}
	case detect.FrameworkVitest:
		base = []string{"vitest", "run"}
	case detect.FrameworkPytest, detect.FrameworkJest, detect.FrameworkMocha, detect.FrameworkRSpec:
		base = []string{c.full(root)[0]}
	case detect.FrameworkPHPUnit:
		base = []string{phpunitBinary(root)}
	case detect.FrameworkCargo:
		base = []string{"cargo", "test"}
	default:
		base = c.full(root)
	}
	return append(prefix(c.runner, pm), append(base, singleFileTarget(f, testFile)...)...)
}

// SingleFileArgvWith narrows a user-configured command to one test artifact,
// shaping the target the way the framework expects it (a package for go
// test, a module for unittest).
func SingleFileArgvWith(f detect.Framework, override []string, testFile string) []string {
	return append(slices.Clone(override), singleFileTarget(f, testFile)...)
}

// singleFileTarget returns the arguments that select testFile.
func singleFileTarget(f detect.Framework, testFile string) []string {
	name := strings.TrimSuffix(path.Base(testFile), path.Ext(testFile))
	switch f {
	case detect.FrameworkGo:
		return []string{goPackage(testFile)}
	case detect.FrameworkUnittest:
		return []string{strings.TrimSuffix(strings.ReplaceAll(testFile, "/", "."), ".py")}
	case detect.FrameworkCargo:
		if strings.HasPrefix(testFile, "tests/") {
			return []string{"--test", name}
		}
		return nil
	case detect.FrameworkMaven:
		return []string{"-Dtest=" + name}
	case detect.FrameworkGradle:
		return []string{"--tests", name}
	default:
		return []string{testFile}
	}
}

func prefix(r runner, pm detect.PackageManager) []string {
	switch r {
	case runnerNode:
		switch pm {
		case detect.PackageManagerYarn:
			return []string{"yarn"}
		case detect.PackageManagerPnpm:
			return []string{"pnpm", "exec"}
		case detect.PackageManagerBun:
			return []string{"bunx"}
		default:
			return []string{"npx"}
		}
	case runnerPython:
		switch pm {
		case detect.PackageManagerPoetry:
			return []string{"poetry", "run"}
		case detect.PackageManagerUV:
			return []string{"uv", "run"}
		case detect.PackageManagerPipenv:
			return []string{"pipenv", "run"}
		}
	case runnerRuby:
		if pm == detect.PackageManagerBundler {
			return []string{"bundle", "exec"}
		}
	}
	return nil
}

// withArgs returns base+args, or nil when args is empty.
func withArgs(base, args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return append(slices.Clone(base), args...)
}

func filterExt(files []string, exts ...string) []string {
	var out []string
	for _, f := range files {
		if slices.Contains(exts, path.Ext(f)) {
			out = append(out, f)
		}
	}
	return out
}

// relatedTests maps changed files with the given extensions to existing test
// artifacts, deduplicated and sorted.
func relatedTests(root string, files []string, exts ...string) []string {
	var out []string
	for _, f := range filterExt(files, exts...) {
		if t, ok := RelatedTest(root, f); ok && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

func goPackage(file string) string {
	dir := path.Dir(file)
	if dir == "." {
		return "."
	}
	return "./" + dir
}

func goPackages(files []string) []string {
	var pkgs []string
	for _, f := range filterExt(files, ".go") {
		if p := goPackage(f); !slices.Contains(pkgs, p) {
			pkgs = append(pkgs, p)
		}
	}
	slices.Sort(pkgs)
	return pkgs
}

func wrapperOr(root, wrapper, fallback string) string {
	if fileExists(root, wrapper) {
		return "./" + wrapper
	}
	return fallback
}

func phpunitBinary(root string) string {
	if fileExists(root, "vendor/bin/phpunit") {
		return "vendor/bin/phpunit"
	}
	return "phpunit"
}
