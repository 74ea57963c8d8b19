package observe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentChecks bounds the number of link targets stat'ed at once.
const maxConcurrentChecks = 8

var docNames = []string{"README.md", "CLAUDE.md", "AGENTS.md", "CONTRIBUTING.md", "CHANGELOG.md"}

var sourceExts = []string{".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".rs", ".rb", ".java", ".kt", ".php"}

// IsDocFile reports whether rel is a documentation file worth validating.
func IsDocFile(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if slices.Contains(docNames, path.Base(rel)) {
		return true
	}
	ok, _ := doublestar.Match("docs/**/*.md", rel)
	return ok
}

// DocReport lists what is wrong with one documentation file.
type DocReport struct {
	Path         string   `json:"path"`
	CheckedLinks int      `json:"checked_links"`
	BrokenLinks  []string `json:"broken_links,omitempty"`
	StaleSources []string `json:"stale_sources,omitempty"`
}

// ValidateDoc checks every local link target in the doc at rel and lists the
// sibling source files modified after the doc itself.
func ValidateDoc(ctx context.Context, root, rel string) (DocReport, error) {
	report := DocReport{Path: filepath.ToSlash(rel)}
	docPath := filepath.Join(root, rel)

	src, err := os.ReadFile(docPath) //nolint:gosec // rel is a project-relative path from the hook payload
	if err != nil {
		return report, fmt.Errorf("read doc: %w", err)
	}

	targets := localLinks(src)
	report.CheckedLinks = len(targets)
	broken := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation passes through
			}
			broken[i] = !exists(resolveLink(root, filepath.Dir(docPath), target))
			return nil
		})
	}

	var stale []string
	g.Go(func() error {
		var err error
		stale, err = staleSiblings(docPath)
		return err
	})

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("validate doc: %w", err)
	}

	for i, target := range targets {
		if broken[i] {
			report.BrokenLinks = append(report.BrokenLinks, target)
		}
	}
	report.StaleSources = stale
	return report, nil
}

// localLinks returns the distinct link and image destinations in src that
// point into the working tree, in document order.
func localLinks(src []byte) []string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest []byte
		switch node := n.(type) {
		case *ast.Link:
			dest = node.Destination
		case *ast.Image:
			dest = node.Destination
		default:
			return ast.WalkContinue, nil
		}
		if target, ok := localTarget(string(dest)); ok && !slices.Contains(out, target) {
			out = append(out, target)
		}
		return ast.WalkContinue, nil
	})
	return out
}

// localTarget strips fragments and queries and rejects anything that is not
// a path on disk.
func localTarget(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	p, err := url.PathUnescape(u.Path)
	if err != nil || p == "" {
		return "", false
	}
	return p, true
}

// resolveLink treats a leading slash as relative to the project root.
func resolveLink(root, docDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return filepath.Join(root, filepath.FromSlash(target))
	}
	return filepath.Join(docDir, filepath.FromSlash(target))
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func staleSiblings(docPath string) ([]string, error) {
	info, err := os.Stat(docPath)
	if err != nil {
		return nil, fmt.Errorf("stat doc: %w", err)
	}
	entries, err := os.ReadDir(filepath.Dir(docPath))
	if err != nil {
		return nil, fmt.Errorf("read doc dir: %w", err)
	}

	var stale []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(sourceExts, filepath.Ext(e.Name())) {
			continue
		}
		fi, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if fi.ModTime().After(info.ModTime()) {
			stale = append(stale, e.Name())
		}
	}
	return stale, nil
}
