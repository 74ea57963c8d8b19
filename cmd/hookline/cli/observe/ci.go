// Package observe implements the observational PostToolUse checks: CI
// configuration suggestions and documentation link validation. Neither ever
// affects the tool call; findings only reach the log.
package observe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/hookline/hookline/cmd/hookline/cli/detect"
)

var ciPatterns = []string{
	".github/workflows/*.{yml,yaml}",
	".gitlab-ci.yml",
	".circleci/config.yml",
	"Jenkinsfile",
	"azure-pipelines.yml",
	".travis.yml",
	"bitbucket-pipelines.yml",
	".drone.yml",
}

// IsCIConfig reports whether rel (slash-separated, relative to the project
// root) is a CI pipeline definition.
func IsCIConfig(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	for _, p := range ciPatterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Suggestion is one missing CI step for a detected ecosystem.
type Suggestion struct {
	Ecosystem detect.Ecosystem `json:"ecosystem"`
	Command   string           `json:"command"`
}

// CIReport is the outcome of inspecting one CI file.
type CIReport struct {
	Path        string       `json:"path"`
	Parsed      bool         `json:"parsed"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

type ciStep struct {
	ecosystem detect.Ecosystem
	command   string
	markers   []string
}

var ciSteps = []ciStep{
	{detect.EcosystemGo, "go test ./...", []string{"go test", "gotestsum", "make test"}},
	{detect.EcosystemPython, "pytest", []string{"pytest", "unittest", "tox", "nox"}},
	{detect.EcosystemNode, "npm test", []string{"npm test", "npm run test", "yarn test", "pnpm test", "bun test", "jest", "vitest", "mocha"}},
	{detect.EcosystemRust, "cargo test", []string{"cargo test", "cargo nextest"}},
	{detect.EcosystemRuby, "bundle exec rspec", []string{"rspec", "rake test", "rake spec"}},
	{detect.EcosystemJava, "mvn test", []string{"mvn", "gradle", "gradlew"}},
	{detect.EcosystemPHP, "vendor/bin/phpunit", []string{"phpunit", "composer test", "pest"}},
}

// SuggestCI reads the CI file at rel and suggests a test step for every
// detected ecosystem the pipeline never mentions. YAML files are reduced to
// their scalar values; other formats (Jenkinsfile) are searched as text.
func SuggestCI(root, rel string, res detect.Result) (CIReport, error) {
	report := CIReport{Path: filepath.ToSlash(rel)}

	data, err := os.ReadFile(filepath.Join(root, rel)) //nolint:gosec // rel is a project-relative path from the hook payload
	if err != nil {
		return report, fmt.Errorf("read ci config: %w", err)
	}

	haystack := string(data)
	if ext := path.Ext(report.Path); ext == ".yml" || ext == ".yaml" {
		var doc yaml.Node
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return report, fmt.Errorf("parse ci config: %w", err)
		}
		report.Parsed = true
		haystack = strings.Join(scalars(&doc, nil), "\n")
	}

	for _, step := range ciSteps {
		if !res.HasEcosystem(step.ecosystem) {
			continue
		}
		if !mentionsAny(haystack, step.markers) {
			report.Suggestions = append(report.Suggestions, Suggestion{Ecosystem: step.ecosystem, Command: step.command})
		}
	}
	return report, nil
}

func scalars(n *yaml.Node, out []string) []string {
	if n == nil {
		return out
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return append(out, n.Value)
	case yaml.MappingNode:
		// Keys name jobs and steps; only values carry commands.
		for i := 1; i < len(n.Content); i += 2 {
			out = scalars(n.Content[i], out)
		}
		return out
	}
	for _, c := range n.Content {
		out = scalars(c, out)
	}
	return out
}

func mentionsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
