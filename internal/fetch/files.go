package fetch

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// StdinPath selects standard input as the source.
const StdinPath = "-"

// Files reads every file matching patterns in sorted path order. Patterns may
// use doublestar globs such as "vocab/**/*.ttl". Text holds the files joined
// together and Documents keeps them apart.
func Files(patterns []string) (*Result, error) {
	paths, err := ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{URL: path, Message: "failed to read file", Cause: err}
		}
		docs = append(docs, Document{Name: path, Text: string(content)})
		sb.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}

	text := sb.String()
	return &Result{
		URL:       strings.Join(paths, ","),
		Body:      text,
		Text:      text,
		Documents: docs,
	}, nil
}

// ExpandPatterns resolves globs to a sorted, de-duplicated list of files.
// A pattern that matches nothing is an error.
func ExpandPatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, &Error{URL: "", Message: "no input files given"}
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, &Error{URL: pattern, Message: "invalid glob pattern", Cause: err}
		}
		if len(matches) == 0 {
			return nil, &Error{URL: pattern, Message: "no files match"}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, &Error{URL: m, Message: "failed to stat file", Cause: err}
			}
			if info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	if len(paths) == 0 {
		return nil, &Error{URL: strings.Join(patterns, ","), Message: "patterns match only directories"}
	}

	sort.Strings(paths)
	return paths, nil
}

// Reader reads the whole of r as vocabulary text.
func Reader(name string, r io.Reader) (*Result, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{URL: name, Message: fmt.Sprintf("failed to read %s", name), Cause: err}
	}
	return &Result{URL: name, Body: string(content), Text: string(content)}, nil
}
