package observability

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/extract"
	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/store"
	"github.com/jonathan/unit-browser/internal/types"
)

func TestPrintExtraction(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	units := make([]*types.Unit, 0, 7)
	for i := 0; i < 7; i++ {
		units = append(units, &types.Unit{ID: fmt.Sprintf("U%d", i), Label: "unit", UnitCode: "u"})
	}
	stats := extract.Stats{TotalLines: 40, Blocks: 7, FieldsApplied: 20, FieldsSkipped: 2, IgnoredLines: 11}

	p.PrintExtraction("units.ttl", stats, units)
	output := buf.String()

	assert.Contains(t, output, "EXTRACTION")
	assert.Contains(t, output, "units.ttl")
	assert.Contains(t, output, "40 (11 ignored)")
	assert.Contains(t, output, "20 applied, 2 skipped")
	assert.Contains(t, output, "U0 (unit) [u]")
	assert.NotContains(t, output, "U5")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintBins(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bins := binning.Bins{"A": 4, "M": 2}
	p.PrintBins(filter.Tokens(bins, 6, "M"))
	output := buf.String()

	assert.Contains(t, output, "UNITS BY LETTER")
	assert.Contains(t, output, "All: 6 units")
	assert.Contains(t, output, strings.Repeat("█", maxBarWidth))
	assert.Contains(t, output, ">M     2 "+strings.Repeat("█", maxBarWidth/2))
	assert.Contains(t, output, " Z     0")
}

func TestPrintBins_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBins(nil)
	assert.Empty(t, buf.String())
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	id := uuid.New()
	p.PrintSnapshot(&store.Snapshot{
		ID:        id,
		Source:    "https://example.org/units",
		UnitCount: 12,
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	})
	output := buf.String()

	assert.Contains(t, output, "SNAPSHOT SAVED")
	assert.Contains(t, output, id.String())
	assert.Contains(t, output, "2024-03-01 09:30:00")

	buf.Reset()
	p.PrintSnapshot(nil)
	assert.Empty(t, buf.String())
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintValidation(nil)
	assert.Contains(t, buf.String(), "matches the schema")

	buf.Reset()
	p.PrintValidation(errors.New("units.0.label is required"))
	assert.Contains(t, buf.String(), "units.0.label is required")
}

func TestPrintBox_TruncatesByRune(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("T", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
	require.Contains(t, buf.String(), "...")
}
