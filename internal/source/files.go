package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"ragsync/internal/domain"
)

var slugPattern = regexp.MustCompile(`/articles/\d+-([a-zA-Z0-9\-]+)`)

// Slug extracts the article slug from its URL path, or "untitled".
func Slug(htmlURL string) string {
	path := htmlURL
	if u, err := url.Parse(htmlURL); err == nil {
		path = u.Path
	}
	if m := slugPattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return "untitled"
}

// Filename is the Markdown file name of an article.
func Filename(a Article) string {
	return Slug(a.HTMLURL) + ".md"
}

// WriteArticles renders every article into dir, one file per slug. Articles sharing
// a slug overwrite each other in input order. It returns the number of files written.
func WriteArticles(dir string, articles []Article) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	for i, a := range articles {
		path := filepath.Join(dir, Filename(a))
		if err := os.WriteFile(path, []byte(RenderMarkdown(a)), 0o644); err != nil {
			return i, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return len(articles), nil
}

// LoadDir reads the *.md files of dir, sorted by name, keyed by file name.
func LoadDir(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		content := string(data)
		docs = append(docs, domain.Document{
			ID:      name,
			Title:   markdownTitle(content),
			URL:     markdownURL(content),
			Content: content,
		})
	}
	return docs, nil
}

// Dir is a document source backed by a directory of Markdown files.
type Dir struct {
	Path string
}

var _ domain.DocumentSource = Dir{}

// Documents implements domain.DocumentSource.
func (d Dir) Documents(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadDir(d.Path)
}

var viewLink = regexp.MustCompile(`\[View Article\]\(([^)\s]+)\)`)

func markdownTitle(content string) string {
	first, _, _ := strings.Cut(content, "\n")
	if strings.HasPrefix(first, "# ") {
		return strings.TrimSpace(first[2:])
	}
	return ""
}

func markdownURL(content string) string {
	if m := viewLink.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}
