package rendering

import (
	"embed"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/types"
)

//go:embed templates/table.html.tmpl
var templates embed.FS

const defaultTemplate = "templates/table.html.tmpl"

// DefaultTitle is the page heading when none is given.
const DefaultTitle = "Units of Measure"

// Page is the data passed to the table template.
type Page struct {
	Title    string
	Source   string
	LoadedAt time.Time
	BasePath string // target of alphabet links
	Tokens   []filter.Token
	Columns  []string
	Rows     []Row
	Total    int
}

// Row is one table row. DisplayLabel is pre-built anchor markup.
type Row struct {
	ID             string
	DisplayLabel   template.HTML
	Label          string
	UnitCode       string
	Description    string
	Classification string
}

// NewPage builds a Page for the visible units. total is the unfiltered count.
func NewPage(title, source string, loadedAt time.Time, tokens []filter.Token, visible []*types.Unit, total int) *Page {
	if title == "" {
		title = DefaultTitle
	}
	rows := make([]Row, 0, len(visible))
	for _, u := range visible {
		rows = append(rows, Row{
			ID: u.ID,
			// the anchor is built by the extractor from an HTML-escaped id
			DisplayLabel:   template.HTML(u.DisplayLabel), //nolint:gosec
			Label:          u.Label,
			UnitCode:       u.UnitCode,
			Description:    u.Description,
			Classification: u.Classification,
		})
	}
	return &Page{
		Title:    title,
		Source:   source,
		LoadedAt: loadedAt,
		BasePath: "/",
		Tokens:   tokens,
		Columns:  types.Columns,
		Rows:     rows,
		Total:    total,
	}
}

// Renderer executes the table template.
type Renderer struct {
	tmpl *template.Template
	name string
}

// NewRenderer parses the template at templatePath, or the built-in one when empty.
func NewRenderer(templatePath string) (*Renderer, error) {
	tmpl, err := parseTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	name := templatePath
	if name == "" {
		name = builtinTemplate
	}
	return &Renderer{tmpl: tmpl, name: name}, nil
}

// HTML writes page to w.
func (r *Renderer) HTML(w io.Writer, page *Page) error {
	if err := r.tmpl.Execute(w, page); err != nil {
		return &TemplateError{Template: r.name, Message: "failed to execute", Cause: err}
	}
	return nil
}

func parseTemplate(templatePath string) (*template.Template, error) {
	if templatePath == "" {
		tmpl, err := template.ParseFS(templates, defaultTemplate)
		if err != nil {
			return nil, &TemplateError{Template: builtinTemplate, Message: "failed to parse", Cause: err}
		}
		return tmpl, nil
	}

	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{Template: templatePath, Message: "file not found", Cause: err}
		}
		return nil, &TemplateError{Template: templatePath, Message: "failed to read file", Cause: err}
	}

	tmpl, err := template.New("table").Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Template: templatePath, Message: "failed to parse", Cause: err}
	}
	return tmpl, nil
}
