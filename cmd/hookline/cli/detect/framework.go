package detect

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/ini.v1"
)

// frameworkCheck reports whether a framework's markers are present.
type frameworkCheck struct {
	framework Framework
	match     func(p tree, ecosystems []Ecosystem) bool
}

// frameworkChecks is evaluated in order; the first match wins.
var frameworkChecks = []frameworkCheck{
	{FrameworkPytest, func(p tree, _ []Ecosystem) bool { return hasPytest(p) }},
	{FrameworkVitest, func(p tree, _ []Ecosystem) bool {
		return p.globAny("vitest.config.*", "vitest.workspace.*") || packageJSONHas(p, "vitest")
	}},
	{FrameworkJest, func(p tree, _ []Ecosystem) bool {
		return p.globAny("jest.config.*") || packageJSONHas(p, "jest") || packageJSONKey(p, "jest")
	}},
	{FrameworkMocha, func(p tree, _ []Ecosystem) bool {
		return p.globAny(".mocharc.*") || packageJSONHas(p, "mocha")
	}},
	{FrameworkGo, func(p tree, _ []Ecosystem) bool { return p.file("go.mod") }},
	{FrameworkCargo, func(p tree, _ []Ecosystem) bool { return p.file("Cargo.toml") }},
	{FrameworkRSpec, func(p tree, _ []Ecosystem) bool {
		return p.anyFile(".rspec", "spec/spec_helper.rb")
	}},
	{FrameworkMaven, func(p tree, _ []Ecosystem) bool { return p.file("pom.xml") }},
	{FrameworkGradle, func(p tree, _ []Ecosystem) bool {
		return p.anyFile("build.gradle", "build.gradle.kts")
	}},
	{FrameworkPHPUnit, func(p tree, _ []Ecosystem) bool {
		return p.anyFile("phpunit.xml", "phpunit.xml.dist")
	}},
	{FrameworkUnittest, func(_ tree, ecosystems []Ecosystem) bool {
		for _, e := range ecosystems {
			if e == EcosystemPython {
				return true
			}
		}
		return false
	}},
}

func detectFramework(p tree, ecosystems []Ecosystem) Framework {
	for _, c := range frameworkChecks {
		if c.match(p, ecosystems) {
			return c.framework
		}
	}
	return ""
}

func (p tree) globAny(patterns ...string) bool {
	for _, pattern := range patterns {
		if len(globRoot(os.DirFS(p.root), pattern)) > 0 {
			return true
		}
	}
	return false
}

func hasPytest(p tree) bool {
	if p.anyFile("pytest.ini", "conftest.py") {
		return true
	}
	if pyprojectUsesPytest(p) {
		return true
	}
	if iniHasSection(p, "setup.cfg", "tool:pytest") || iniHasSection(p, "tox.ini", "pytest") {
		return true
	}
	return requirementsMention(p, "pytest")
}

// pyproject is the subset of pyproject.toml that can reveal pytest.
type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
	Tool             struct {
		Pytest map[string]any `toml:"pytest"`
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func pyprojectUsesPytest(p tree) bool {
	data, ok := p.read("pyproject.toml")
	if !ok {
		return false
	}
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return false
	}
	if doc.Tool.Pytest != nil {
		return true
	}
	if requirementListHas(doc.Project.Dependencies, "pytest") {
		return true
	}
	for _, deps := range doc.Project.OptionalDependencies {
		if requirementListHas(deps, "pytest") {
			return true
		}
	}
	for _, group := range doc.DependencyGroups {
		for _, dep := range group {
			if s, ok := dep.(string); ok && requirementName(s) == "pytest" {
				return true
			}
		}
	}
	poetry := doc.Tool.Poetry
	if _, ok := poetry.Dependencies["pytest"]; ok {
		return true
	}
	if _, ok := poetry.DevDependencies["pytest"]; ok {
		return true
	}
	for _, g := range poetry.Group {
		if _, ok := g.Dependencies["pytest"]; ok {
			return true
		}
	}
	return false
}

func iniHasSection(p tree, file, section string) bool {
	if !p.file(file) {
		return false
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{
		Loose:                      true,
		AllowBooleanKeys:           true,
		AllowPythonMultilineValues: true,
	}, p.path(file))
	if err != nil {
		return false
	}
	return cfg.HasSection(section)
}

func requirementsMention(p tree, name string) bool {
	for _, file := range []string{"requirements-dev.txt", "requirements-test.txt", "requirements.txt"} {
		data, ok := p.read(file)
		if !ok {
			continue
		}
		if requirementListHas(strings.Split(string(data), "\n"), name) {
			return true
		}
	}
	return false
}

func requirementListHas(reqs []string, name string) bool {
	for _, r := range reqs {
		if requirementName(r) == name {
			return true
		}
	}
	return false
}

// requirementName extracts the distribution name from a PEP 508 line such as
// "pytest>=7; python_version>'3.8'".
func requirementName(req string) string {
	req = strings.TrimSpace(req)
	if i := strings.IndexByte(req, '#'); i >= 0 {
		req = req[:i]
	}
	end := strings.IndexAny(req, "<>=!~;[ (@")
	if end >= 0 {
		req = req[:end]
	}
	return strings.ToLower(strings.TrimSpace(req))
}

// packageJSONHas reports whether dep is a dependency or dev dependency.
func packageJSONHas(p tree, dep string) bool {
	data, ok := p.read("package.json")
	if !ok || !gjson.ValidBytes(data) {
		return false
	}
	name := gjson.Escape(dep)
	return gjson.GetBytes(data, "devDependencies."+name).Exists() ||
		gjson.GetBytes(data, "dependencies."+name).Exists()
}

// packageJSONKey reports whether package.json has a top-level key.
func packageJSONKey(p tree, key string) bool {
	data, ok := p.read("package.json")
	if !ok || !gjson.ValidBytes(data) {
		return false
	}
	return gjson.GetBytes(data, gjson.Escape(key)).Exists()
}
