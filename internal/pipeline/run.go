// Package pipeline loads a vocabulary, extracts its units and bins them into
// a Catalog ready for display.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/extract"
	"github.com/jonathan/unit-browser/internal/fetch"
	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/store"
	"github.com/jonathan/unit-browser/internal/types"
)

// Step names reported in progress events.
const (
	StepFetch   = "fetch"
	StepExtract = "extract"
	StepBin     = "bin"
	StepSave    = "save"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// SnapshotSaver persists extracted units.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, source string, units []*types.Unit) (*store.Snapshot, error)
}

// Options holds configuration for a run
type Options struct {
	Source     fetch.Source
	Extract    *extract.Options
	Snapshots  SnapshotSaver // optional
	OnProgress ProgressCallback
}

// Catalog is the immutable result of one successful run.
type Catalog struct {
	Source   string
	LoadedAt time.Time
	Units    []*types.Unit // input order
	Bins     binning.Bins
	Stats    extract.Stats
	Snapshot *store.Snapshot
}

// Error reports the step a run failed in.
type Error struct {
	Step  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func emitProgress(opts *Options, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// Run fetches, extracts and bins. Any failure aborts the run and no Catalog
// is returned.
func Run(ctx context.Context, opts Options) (*Catalog, error) {
	if opts.Source == nil {
		return nil, &Error{Step: StepFetch, Cause: fmt.Errorf("no source configured")}
	}

	emitProgress(&opts, StepFetch, "Loading "+opts.Source.Describe(), nil)
	res, err := opts.Source.Load(ctx)
	if err != nil {
		return nil, &Error{Step: StepFetch, Cause: err}
	}
	emitProgress(&opts, StepFetch, fmt.Sprintf("Loaded %d bytes", len(res.Text)), nil)

	catalog, err := build(opts.Source.Describe(), res.Docs(), opts.Extract, &opts)
	if err != nil {
		return nil, err
	}

	if opts.Snapshots != nil {
		snap, err := opts.Snapshots.SaveSnapshot(ctx, catalog.Source, catalog.Units)
		if err != nil {
			return nil, &Error{Step: StepSave, Cause: err}
		}
		catalog.Snapshot = snap
		emitProgress(&opts, StepSave, "Saved snapshot "+snap.ID.String(), snap)
	}

	return catalog, nil
}

// FromText builds a Catalog from text already in memory.
func FromText(source, text string, extractOpts *extract.Options) (*Catalog, error) {
	return build(source, []fetch.Document{{Name: source, Text: text}}, extractOpts, &Options{})
}

// build extracts each document with fresh scanner state and appends the
// units in document order.
func build(source string, docs []fetch.Document, extractOpts *extract.Options, opts *Options) (*Catalog, error) {
	extractor := extract.New(extractOpts)
	result := &extract.Result{Units: []*types.Unit{}}
	for _, doc := range docs {
		part, err := extractor.Extract(strings.NewReader(doc.Text))
		if err != nil {
			var extractErr *extract.Error
			if len(docs) > 1 && errors.As(err, &extractErr) {
				extractErr.Source = doc.Name
			}
			return nil, &Error{Step: StepExtract, Cause: err}
		}
		result.Units = append(result.Units, part.Units...)
		result.Stats.Add(part.Stats)
	}
	emitProgress(opts, StepExtract, fmt.Sprintf("Extracted %d units", len(result.Units)), result.Stats)

	bins, err := binning.BinUnits(result.Units)
	if err != nil {
		return nil, &Error{Step: StepBin, Cause: err}
	}
	emitProgress(opts, StepBin, fmt.Sprintf("Binned into %d letters", len(bins)), bins)

	return &Catalog{
		Source:   source,
		LoadedAt: time.Now(),
		Units:    result.Units,
		Bins:     bins,
		Stats:    result.Stats,
	}, nil
}

// Sorted returns the units in table order: ascending by the lower-cased
// visible text of the display label, the way an HTML table column sorts.
// Ties keep input order.
func (c *Catalog) Sorted() []*types.Unit {
	keys := make(map[*types.Unit]string, len(c.Units))
	for _, u := range c.Units {
		keys[u] = sortKey(u.DisplayLabel)
	}
	sorted := make([]*types.Unit, len(c.Units))
	copy(sorted, c.Units)
	sort.SliceStable(sorted, func(i, j int) bool {
		return keys[sorted[i]] < keys[sorted[j]]
	})
	return sorted
}

func sortKey(displayLabel string) string {
	if text, ok := binning.AnchorText(displayLabel); ok {
		return strings.ToLower(text)
	}
	return strings.ToLower(displayLabel)
}

// Rows returns the sorted units visible under f. A nil filter shows all.
func (c *Catalog) Rows(f *filter.Filter) []*types.Unit {
	sorted := c.Sorted()
	if f == nil {
		return sorted
	}
	return f.Apply(sorted)
}

// Tokens returns the alphabet bar for selected.
func (c *Catalog) Tokens(selected string) []filter.Token {
	return filter.Tokens(c.Bins, len(c.Units), selected)
}

// UnitList returns the visible rows as an export document.
func (c *Catalog) UnitList(f *filter.Filter) *types.UnitList {
	rows := c.Rows(f)
	list := &types.UnitList{
		Source: c.Source,
		Count:  len(rows),
		Units:  rows,
	}
	if f != nil {
		list.Letter = f.Selected()
	}
	return list
}
