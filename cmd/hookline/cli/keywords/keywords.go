// Package keywords classifies free text against a fixed table of
// test-related patterns.
//
// The table drives two decisions: whether a sub-task prompt gets testing
// context injected, and which command key the analytics hook records for it.
package keywords

import "strings"

// Tag is the classification a rule assigns.
type Tag string

const (
	TagUnitTest        Tag = "unit-test"
	TagIntegrationTest Tag = "integration-test"
	TagE2ETest         Tag = "e2e-test"
	TagCoverage        Tag = "coverage"
	TagTDD             Tag = "tdd"
	TagMocking         Tag = "mocking"
	TagFixtures        Tag = "fixtures"
	TagBenchmark       Tag = "benchmark"
	TagTest            Tag = "test"
)

// Rule maps a lowercase substring to a tag.
type Rule struct {
	Pattern string
	Tag     Tag
}

// rules is ordered from specific to generic so First returns the most
// informative tag.
var rules = []Rule{
	{"unit test", TagUnitTest},
	{"unittest", TagUnitTest},
	{"integration test", TagIntegrationTest},
	{"e2e", TagE2ETest},
	{"end-to-end", TagE2ETest},
	{"end to end", TagE2ETest},
	{"coverage", TagCoverage},
	{"tdd", TagTDD},
	{"test-driven", TagTDD},
	{"test driven", TagTDD},
	{"mock", TagMocking},
	{"stub", TagMocking},
	{"fixture", TagFixtures},
	{"benchmark", TagBenchmark},
	{"pytest", TagTest},
	{"jest", TagTest},
	{"vitest", TagTest},
	{"spec", TagTest},
	{"test", TagTest},
}

// Rules returns a copy of the rule table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Match returns every tag whose pattern occurs in text, case-insensitively,
// in table order and without duplicates.
func Match(text string) []Tag {
	lower := strings.ToLower(text)
	var tags []Tag
	seen := make(map[Tag]bool)
	for _, r := range rules {
		if seen[r.Tag] || !strings.Contains(lower, r.Pattern) {
			continue
		}
		seen[r.Tag] = true
		tags = append(tags, r.Tag)
	}
	return tags
}

// First returns the first matching tag.
func First(text string) (Tag, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.Pattern) {
			return r.Tag, true
		}
	}
	return "", false
}

// Matches reports whether any rule matches text.
func Matches(text string) bool {
	_, ok := First(text)
	return ok
}
