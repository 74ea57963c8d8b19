package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want []Tag
	}{
		{"write unit tests for the parser", []Tag{TagUnitTest, TagTest}},
		{"Add E2E coverage", []Tag{TagE2ETest, TagCoverage}},
		{"set up pytest fixtures and mocks", []Tag{TagMocking, TagFixtures, TagTest}},
		{"refactor the HTTP client", nil},
		{"", nil},
		{"TDD the new endpoint", []Tag{TagTDD}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Match(tt.text))
		})
	}
}

func TestFirst(t *testing.T) {
	t.Parallel()

	tag, ok := First("Please write UNIT TESTS")
	assert.True(t, ok)
	assert.Equal(t, TagUnitTest, tag)

	tag, ok = First("run the benchmark suite")
	assert.True(t, ok)
	assert.Equal(t, TagBenchmark, tag)

	_, ok = First("rename a variable")
	assert.False(t, ok)
}

func TestMatches_AgreesWithMatch(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"x", "testing", "Spec out the API", "mocked", "nothing here"} {
		assert.Equal(t, len(Match(text)) > 0, Matches(text), text)
	}
}

func TestRules_PatternsAreLowercase(t *testing.T) {
	t.Parallel()

	for _, r := range Rules() {
		assert.Equal(t, strings.ToLower(r.Pattern), r.Pattern)
		assert.NotEmpty(t, r.Tag)
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	t.Parallel()

	got := Rules()
	got[0].Tag = "changed"
	assert.Equal(t, TagUnitTest, Rules()[0].Tag)
}
