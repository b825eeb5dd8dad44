package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turtle = "unit:METER\n  rdfs:label \"Meter\"@en-us ;\n.\n"

func TestURL_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = w.Write([]byte(turtle))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, turtle, result.Text)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestURL_UnwrapsHTMLMirror(t *testing.T) {
	page := "<html><body><h1>Units</h1><pre>unit:METER\n  rdfs:label &#34;Meter&#34;@en-us ;\n.</pre></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, page, result.Body)
	assert.Equal(t, "unit:METER\n  rdfs:label \"Meter\"@en-us ;\n.", result.Text)
	assert.NotContains(t, result.Text, "Units")
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Empty(t, result.Text)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, &Options{MaxBytes: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 10 bytes")
}

func TestURL_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(turtle))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := URL(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVocabularyText(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        string
	}{
		{"plain turtle", turtle, "text/turtle", turtle},
		{"no content type", turtle, "", turtle},
		{"html by content type", "<pre>unit:A</pre>", "text/html", "unit:A"},
		{"html by doctype", "<!DOCTYPE html><html><body><pre>unit:A</pre></body></html>", "", "unit:A"},
		{"multiple pre blocks", "<html><pre>unit:A</pre><pre>unit:B</pre></html>", "text/html", "unit:A\nunit:B"},
		{"no pre falls back to body", "<html><body>unit:A<script>x()</script></body></html>", "text/html", "unit:A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VocabularyText(tt.body, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPreformatted_KeepsIndentation(t *testing.T) {
	html := "<pre>unit:A\n  qudt:ucumCode \"A\"^^qudt:UCUMcs ;\n</pre>"

	text, err := ExtractPreformatted(html)
	require.NoError(t, err)
	assert.Equal(t, "unit:A\n  qudt:ucumCode \"A\"^^qudt:UCUMcs ;\n", text)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFiles_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.ttl"), "unit:B")
	writeFile(t, filepath.Join(dir, "a.ttl"), "unit:A\n")
	writeFile(t, filepath.Join(dir, "nested", "c.ttl"), "unit:C\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored\n")

	result, err := Files([]string{filepath.Join(dir, "**", "*.ttl")})
	require.NoError(t, err)
	assert.Equal(t, "unit:A\nunit:B\nunit:C\n", result.Text)
	assert.Contains(t, result.URL, "a.ttl")

	require.Len(t, result.Documents, 3)
	assert.Equal(t, filepath.Join(dir, "a.ttl"), result.Documents[0].Name)
	assert.Equal(t, "unit:B", result.Documents[1].Text)
	assert.Equal(t, result.Documents, result.Docs())
}

func TestResult_DocsWithoutDocuments(t *testing.T) {
	result := &Result{URL: "https://example.org/units", Text: turtle}

	docs := result.Docs()
	require.Len(t, docs, 1)
	assert.Equal(t, "https://example.org/units", docs[0].Name)
	assert.Equal(t, turtle, docs[0].Text)
}

func TestFiles_DuplicatePatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.ttl")
	writeFile(t, path, "unit:A\n")

	result, err := Files([]string{path, filepath.Join(dir, "*.ttl")})
	require.NoError(t, err)
	assert.Equal(t, "unit:A\n", result.Text)
}

func TestFiles_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		patterns []string
		wantMsg  string
	}{
		{"no patterns", nil, "no input files given"},
		{"no match", []string{filepath.Join(dir, "*.ttl")}, "no files match"},
		{"bad glob", []string{filepath.Join(dir, "[")}, "invalid glob pattern"},
		{"only directories", []string{dir}, "only directories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Files(tt.patterns)
			require.Error(t, err)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Contains(t, fetchErr.Message, tt.wantMsg)
		})
	}
}

func TestFileSource_Stdin(t *testing.T) {
	src := &FileSource{Patterns: []string{StdinPath}, Stdin: strings.NewReader(turtle)}

	result, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turtle, result.Text)
	assert.Equal(t, "stdin", result.URL)
	assert.Equal(t, "-", src.Describe())
}

func TestURLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(turtle))
	}))
	defer server.Close()

	src := &URLSource{URL: server.URL}
	result, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turtle, result.Text)
	assert.Equal(t, server.URL, src.Describe())
}
