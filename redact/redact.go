// Package redact scrubs credentials from text that hookline persists or hands
// back to the agent, such as captured test output and logged command lines.
package redact

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Placeholder replaces every redacted region.
const Placeholder = "REDACTED"

// secretPattern matches candidate tokens for the entropy check.
var secretPattern = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// assignmentPattern matches KEY=value pairs whose key names a credential, as
// printed by test runners that dump their environment on failure.
var assignmentPattern = regexp.MustCompile(`(?i)\b[A-Z0-9_]*(?:TOKEN|SECRET|PASSWORD|PASSWD|API_?KEY|PRIVATE_KEY|CREDENTIALS?)[A-Z0-9_]*\s*[=:]\s*("[^"\n]*"|'[^'\n]*'|[^\s"']+)`)

// entropyThreshold is the Shannon entropy above which a token is treated as a
// secret. Identifiers and words sit well below it; API keys sit above 5.
const entropyThreshold = 4.5

var (
	gitleaksDetector     *detect.Detector
	gitleaksDetectorOnce sync.Once
)

func getDetector() *detect.Detector {
	gitleaksDetectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		gitleaksDetector = d
	})
	return gitleaksDetector
}

type region struct{ start, end int }

// String replaces secrets in s with Placeholder. A region is redacted when any
// of three detectors flags it: credential-named assignments, high-entropy
// tokens, or a gitleaks rule.
func String(s string) string {
	if s == "" {
		return s
	}
	var regions []region

	for _, m := range assignmentPattern.FindAllStringSubmatchIndex(s, -1) {
		regions = append(regions, region{m[2], m[3]})
	}

	for _, loc := range secretPattern.FindAllStringIndex(s, -1) {
		if shannonEntropy(s[loc[0]:loc[1]]) > entropyThreshold {
			regions = append(regions, region{loc[0], loc[1]})
		}
	}

	if d := getDetector(); d != nil {
		for _, f := range d.DetectString(s) {
			if f.Secret == "" {
				continue
			}
			from := 0
			for {
				idx := strings.Index(s[from:], f.Secret)
				if idx < 0 {
					break
				}
				abs := from + idx
				regions = append(regions, region{abs, abs + len(f.Secret)})
				from = abs + len(f.Secret)
			}
		}
	}

	if len(regions) == 0 {
		return s
	}
	return replace(s, merge(regions))
}

// Strings redacts each element, returning a new slice.
func Strings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// Bytes is a convenience wrapper around String for []byte content.
func Bytes(b []byte) []byte {
	s := string(b)
	redacted := String(s)
	if redacted == s {
		return b
	}
	return []byte(redacted)
}

func merge(regions []region) []region {
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].start < regions[j].start
	})
	merged := []region{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			last.end = max(last.end, r.end)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func replace(s string, regions []region) string {
	var b strings.Builder
	prev := 0
	for _, r := range regions {
		b.WriteString(s[prev:r.start])
		b.WriteString(Placeholder)
		prev = r.end
	}
	b.WriteString(s[prev:])
	return b.String()
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int)
	for i := range len(s) {
		freq[s[i]]++
	}
	length := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
