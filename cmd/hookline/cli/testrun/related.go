package testrun

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IsTestFile reports whether a slash-separated path looks like a test file.
func IsTestFile(rel string) bool {
	base := path.Base(rel)
	lower := strings.ToLower(base)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch {
	case strings.Contains(lower, "_test."),
		strings.Contains(lower, ".test."),
		strings.Contains(lower, ".spec."),
		strings.Contains(lower, "_spec."),
		strings.HasPrefix(lower, "test_"):
		return true
	}
	switch ext {
	case ".java", ".kt", ".php":
		return strings.HasSuffix(stem, "Test") || strings.HasSuffix(stem, "Tests")
	case ".rs":
		return strings.HasPrefix(rel, "tests/")
	}
	return false
}

// candidateTests lists conventional test locations for a source file, most
// specific first.
func candidateTests(rel string) []string {
	dir := path.Dir(rel)
	base := path.Base(rel)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	in := func(d, f string) string { return path.Join(d, f) }

	switch ext {
	case ".go":
		return []string{in(dir, name+"_test.go")}
	case ".py":
		return []string{
			in(dir, "test_"+name+".py"),
			in(dir, name+"_test.py"),
			in("tests", "test_"+name+".py"),
			in("test", "test_"+name+".py"),
		}
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return []string{
			in(dir, name+".test"+ext),
			in(dir, name+".spec"+ext),
			in(path.Join(dir, "__tests__"), name+".test"+ext),
		}
	case ".rb":
		sub := stripTopDir(dir, "lib", "app")
		return []string{
			in(path.Join("spec", sub), name+"_spec.rb"),
			in(dir, name+"_spec.rb"),
		}
	case ".java", ".kt":
		lang := strings.TrimPrefix(ext, ".")
		if lang == "kt" {
			lang = "kotlin"
		}
		mainRoot := "src/main/" + lang
		if dir == mainRoot || strings.HasPrefix(dir, mainRoot+"/") {
			testDir := "src/test/" + lang + strings.TrimPrefix(dir, mainRoot)
			return []string{in(testDir, name+"Test"+ext), in(testDir, name+"Tests"+ext)}
		}
		return []string{in(dir, name+"Test"+ext)}
	case ".rs":
		return []string{in("tests", name+".rs"), in(dir, name+"_test.rs")}
	case ".php":
		sub := stripTopDir(dir, "src")
		return []string{in(path.Join("tests", sub), name+"Test.php")}
	}
	return nil
}

// stripTopDir removes the first path segment when it is one of tops.
func stripTopDir(dir string, tops ...string) string {
	for _, top := range tops {
		if dir == top {
			return ""
		}
		if rest, ok := strings.CutPrefix(dir, top+"/"); ok {
			return rest
		}
	}
	return dir
}

// RelatedTest resolves the test artifact for a changed file, relative to
// root. A changed file that is itself a test resolves to itself. Returns
// false when no conventional location exists on disk.
func RelatedTest(root, rel string) (string, bool) {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return "", false
	}
	if IsTestFile(rel) {
		return rel, fileExists(root, rel)
	}
	for _, c := range candidateTests(rel) {
		if fileExists(root, c) {
			return c, true
		}
	}
	return "", false
}

func fileExists(root, rel string) bool {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}
