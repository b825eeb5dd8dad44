// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/unit-browser/internal/extract"
	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/store"
	"github.com/jonathan/unit-browser/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxBarWidth is the widest histogram bar
	maxBarWidth = 40
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to width runes, ending in "..." when cut.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// PrintExtraction outputs a summary of one extraction pass and the first few units.
func (p *Printer) PrintExtraction(source string, stats extract.Stats, units []*types.Unit) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Source:   %s\n", source))
	sb.WriteString(fmt.Sprintf("Lines:    %d (%d ignored)\n", stats.TotalLines, stats.IgnoredLines))
	sb.WriteString(fmt.Sprintf("Units:    %d\n", stats.Blocks))
	sb.WriteString(fmt.Sprintf("Fields:   %d applied, %d skipped\n", stats.FieldsApplied, stats.FieldsSkipped))

	if len(units) > 0 {
		sb.WriteString("\n")
		count := min(len(units), maxItemsToShow)
		for i := 0; i < count; i++ {
			u := units[i]
			sb.WriteString(fmt.Sprintf("  • %s", u.ID))
			if u.Label != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", u.Label))
			}
			if u.UnitCode != "" {
				sb.WriteString(fmt.Sprintf(" [%s]", u.UnitCode))
			}
			sb.WriteString("\n")
		}
		if len(units) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(units)-maxItemsToShow))
		}
	}

	p.printBox("EXTRACTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBins outputs a letter histogram built from the alphabet tokens.
// Empty letters are listed without a bar.
func (p *Printer) PrintBins(tokens []filter.Token) {
	if len(tokens) == 0 {
		return
	}

	largest := 0
	for _, tok := range tokens {
		if tok.Letter != "" && tok.Count > largest {
			largest = tok.Count
		}
	}

	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Letter == "" {
			sb.WriteString(fmt.Sprintf("%s: %d units\n\n", tok.Label, tok.Count))
			continue
		}
		marker := " "
		if tok.Selected {
			marker = ">"
		}
		bar := ""
		if largest > 0 && tok.Count > 0 {
			bar = strings.Repeat("█", max(1, tok.Count*maxBarWidth/largest))
		}
		sb.WriteString(fmt.Sprintf("%s%s %5d %s\n", marker, tok.Label, tok.Count, bar))
	}

	p.printBox("UNITS BY LETTER", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSnapshot outputs where a saved snapshot went.
func (p *Printer) PrintSnapshot(snap *store.Snapshot) {
	if snap == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:       %s\n", snap.ID))
	sb.WriteString(fmt.Sprintf("Source:   %s\n", snap.Source))
	sb.WriteString(fmt.Sprintf("Units:    %d\n", snap.UnitCount))
	sb.WriteString(fmt.Sprintf("Created:  %s", snap.CreatedAt.Format("2006-01-02 15:04:05")))

	p.printBox("SNAPSHOT SAVED", sb.String())
}

// PrintValidation reports a schema check result.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(err error) {
	if err == nil {
		fmt.Fprintln(p.out, "✓ Unit list matches the schema")
		return
	}
	fmt.Fprintf(p.out, "✗ Unit list does not match the schema: %v\n", err)
}
