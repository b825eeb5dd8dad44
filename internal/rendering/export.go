package rendering

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/types"
)

// Format is an export format name.
type Format string

// Supported export formats.
const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatHTML}

// ParseFormat converts a flag value into a Format. "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Document is everything an export can include.
type Document struct {
	List     *types.UnitList
	Tokens   []filter.Token // alphabet bar, HTML only
	Total    int            // unfiltered unit count, HTML only
	LoadedAt time.Time
}

// Export writes doc to w in format.
func Export(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, doc.List)
	case FormatYAML:
		return exportYAML(w, doc.List)
	case FormatCSV:
		return exportCSV(w, doc.List)
	case FormatMarkdown:
		out, err := Markdown(doc.List)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatHTML:
		r, err := NewRenderer("")
		if err != nil {
			return err
		}
		total := doc.Total
		if total == 0 {
			total = doc.List.Count
		}
		page := NewPage("", doc.List.Source, doc.LoadedAt, doc.Tokens, doc.List.Units, total)
		return r.HTML(w, page)
	default:
		return &RenderError{Format: format, Message: "unsupported format"}
	}
}

// JSON returns list as indented JSON.
func JSON(list *types.UnitList) ([]byte, error) {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, &RenderError{Format: FormatJSON, Message: "failed to marshal", Cause: err}
	}
	return data, nil
}

func exportJSON(w io.Writer, list *types.UnitList) error {
	data, err := JSON(list)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return &RenderError{Format: FormatJSON, Message: "failed to write", Cause: err}
	}
	return nil
}

func exportYAML(w io.Writer, list *types.UnitList) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return &RenderError{Format: FormatYAML, Message: "failed to encode", Cause: err}
	}
	if err := enc.Close(); err != nil {
		return &RenderError{Format: FormatYAML, Message: "failed to flush", Cause: err}
	}
	return nil
}

// csvHeader replaces the anchor column with the plain identifier.
var csvHeader = append([]string{"ID"}, types.Columns[1:]...)

func exportCSV(w io.Writer, list *types.UnitList) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return &RenderError{Format: FormatCSV, Message: "failed to write header", Cause: err}
	}
	for _, u := range list.Units {
		record := append([]string{u.ID}, u.Cells()[1:]...)
		if err := cw.Write(record); err != nil {
			return &RenderError{Format: FormatCSV, Message: "failed to write row " + u.ID, Cause: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &RenderError{Format: FormatCSV, Message: "failed to flush", Cause: err}
	}
	return nil
}
