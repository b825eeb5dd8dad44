package fetch

import (
	"context"
	"io"
	"os"
	"strings"
)

// Source produces vocabulary text.
type Source interface {
	Load(ctx context.Context) (*Result, error)
	Describe() string
}

// URLSource loads from a URL with a single HTTP request.
type URLSource struct {
	URL     string
	Options *Options
}

// Load fetches the URL.
func (s *URLSource) Load(ctx context.Context) (*Result, error) {
	return URL(ctx, s.URL, s.Options)
}

// Describe returns the URL.
func (s *URLSource) Describe() string {
	return s.URL
}

// FileSource loads from local files, or from Stdin when the only pattern is "-".
type FileSource struct {
	Patterns []string
	Stdin    io.Reader
}

// Load reads the files.
func (s *FileSource) Load(_ context.Context) (*Result, error) {
	if len(s.Patterns) == 1 && s.Patterns[0] == StdinPath {
		in := s.Stdin
		if in == nil {
			in = os.Stdin
		}
		return Reader("stdin", in)
	}
	return Files(s.Patterns)
}

// Describe returns the patterns as given.
func (s *FileSource) Describe() string {
	return strings.Join(s.Patterns, ",")
}
