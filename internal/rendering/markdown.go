package rendering

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/jonathan/unit-browser/internal/types"
)

var markdownTable = template.Must(template.New("md").Parse(
	`<table><thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>` +
		`{{range .Rows}}<tr><td>{{.DisplayLabel}}</td><td>{{.Label}}</td><td>{{.UnitCode}}</td>` +
		`<td>{{.Description}}</td><td>{{.Classification}}</td></tr>{{end}}</tbody></table>`))

// Markdown converts a unit list into a GitHub-flavored Markdown table with a
// heading. Display labels become Markdown links.
func Markdown(list *types.UnitList) (string, error) {
	page := NewPage("", list.Source, time.Time{}, nil, list.Units, list.Count)

	var buf bytes.Buffer
	if err := markdownTable.Execute(&buf, page); err != nil {
		return "", &RenderError{Format: FormatMarkdown, Message: "failed to build table", Cause: err}
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	table, err := converter.ConvertString(buf.String())
	if err != nil {
		return "", &RenderError{Format: FormatMarkdown, Message: "failed to convert table", Cause: err}
	}

	var sb strings.Builder
	sb.WriteString("# " + DefaultTitle + "\n\n")
	if list.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n\n", list.Source))
	}
	if list.Letter != "" {
		sb.WriteString(fmt.Sprintf("Letter: %s\n\n", list.Letter))
	}
	sb.WriteString(table)
	sb.WriteString(fmt.Sprintf("\n\n%d units\n", list.Count))
	return sb.String(), nil
}
