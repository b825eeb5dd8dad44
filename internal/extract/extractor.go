package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/unit-browser/internal/types"
)

// DefaultBaseURL is the reference page prefix used in display labels.
const DefaultBaseURL = "https://qudt.org/vocab/unit/"

// DefaultMaxLineBytes caps the length of a single input line.
const DefaultMaxLineBytes = 4 * 1024 * 1024

// Policy decides what happens when a field shows up more than once in a block.
type Policy string

const (
	// PolicyFirstSeen keeps the first non-empty value.
	PolicyFirstSeen Policy = "first"
	// PolicyAccumulate appends every value in order, joined by ", ".
	PolicyAccumulate Policy = "accumulate"
)

const accumulateSeparator = ", "

// Options configures a LineExtractor.
type Options struct {
	ClassificationPolicy Policy
	UnitCodePolicy       Policy
	BaseURL              string
	MaxLineBytes         int
}

// DefaultOptions returns the documented merge policies and the QUDT base URL.
func DefaultOptions() *Options {
	return &Options{
		ClassificationPolicy: PolicyAccumulate,
		UnitCodePolicy:       PolicyFirstSeen,
		BaseURL:              DefaultBaseURL,
		MaxLineBytes:         DefaultMaxLineBytes,
	}
}

// Stats counts what the scanner did with each line.
type Stats struct {
	TotalLines    int
	Blocks        int
	FieldsApplied int
	FieldsSkipped int // recognized but rejected by a merge policy or language tie-break
	IgnoredLines  int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.TotalLines += o.TotalLines
	s.Blocks += o.Blocks
	s.FieldsApplied += o.FieldsApplied
	s.FieldsSkipped += o.FieldsSkipped
	s.IgnoredLines += o.IgnoredLines
}

// Result holds the extracted units in input order.
type Result struct {
	Units []*types.Unit
	Stats Stats
}

// Extractor turns vocabulary text into unit records.
type Extractor interface {
	Extract(r io.Reader) (*Result, error)
}

// LineExtractor is a forgiving single-pass scanner driven by exact line prefixes.
type LineExtractor struct {
	opts Options
}

// New creates a LineExtractor. Zero fields in opts fall back to DefaultOptions.
func New(opts *Options) *LineExtractor {
	defaults := DefaultOptions()
	if opts == nil {
		return &LineExtractor{opts: *defaults}
	}
	o := *opts
	if o.ClassificationPolicy == "" {
		o.ClassificationPolicy = defaults.ClassificationPolicy
	}
	if o.UnitCodePolicy == "" {
		o.UnitCodePolicy = defaults.UnitCodePolicy
	}
	if o.BaseURL == "" {
		o.BaseURL = defaults.BaseURL
	}
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = defaults.MaxLineBytes
	}
	return &LineExtractor{opts: o}
}

// byteOrderMark is dropped from the start of the first line.
const byteOrderMark = "\ufeff"

// Extract scans r line by line. LF and CRLF line endings are both accepted.
func (e *LineExtractor) Extract(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, e.opts.MaxLineBytes)), e.opts.MaxLineBytes)

	s := &scan{
		opts:   &e.opts,
		result: &Result{Units: []*types.Unit{}},
	}
	for scanner.Scan() {
		text := scanner.Text()
		if s.lineNo == 0 {
			text = strings.TrimPrefix(text, byteOrderMark)
		}
		if err := s.line(text); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{
			Line:    s.lineNo + 1,
			Rule:    "read",
			Message: "failed to read input",
			Cause:   err,
		}
	}
	return s.result, nil
}

// Extract runs a LineExtractor with default options over text.
func Extract(text string) ([]*types.Unit, error) {
	result, err := New(nil).Extract(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return result.Units, nil
}

// scan is the state of one extraction pass.
type scan struct {
	opts     *Options
	result   *Result
	current  *types.Unit
	hasLabel bool
	lineNo   int
}

func (s *scan) line(line string) error {
	s.lineNo++
	s.result.Stats.TotalLines++

	rule := matchRule(line)
	if rule == "" || (rule != RuleBlock && s.current == nil) {
		s.result.Stats.IgnoredLines++
		return nil
	}

	switch rule {
	case RuleBlock:
		id, problem := blockID(line)
		if problem != "" {
			return s.fail(rule, line, problem)
		}
		s.current = &types.Unit{
			ID:           id,
			DisplayLabel: DisplayLabel(s.opts.BaseURL, id),
		}
		s.hasLabel = false
		s.result.Units = append(s.result.Units, s.current)
		s.result.Stats.Blocks++
		return nil

	case RuleClassification:
		tag, problem := classificationTag(line)
		if problem != "" {
			return s.fail(rule, line, problem)
		}
		s.count(merge(&s.current.Classification, tag, s.opts.ClassificationPolicy))

	case RuleDescription:
		text, problem := descriptionText(line)
		if problem != "" {
			return s.fail(rule, line, problem)
		}
		s.count(merge(&s.current.Description, text, PolicyFirstSeen))

	case RuleUnitCode:
		code, problem := unitCodeText(line)
		if problem != "" {
			return s.fail(rule, line, problem)
		}
		s.count(merge(&s.current.UnitCode, code, s.opts.UnitCodePolicy))

	case RuleLabel:
		text, lang, problem := labelText(line)
		if problem != "" {
			return s.fail(rule, line, problem)
		}
		if acceptLabel(s.hasLabel, s.current.LabelLanguage, lang) {
			s.current.Label = text
			s.current.LabelLanguage = lang
			s.hasLabel = true
			s.count(true)
		} else {
			s.count(false)
		}
	}
	return nil
}

func (s *scan) count(applied bool) {
	if applied {
		s.result.Stats.FieldsApplied++
	} else {
		s.result.Stats.FieldsSkipped++
	}
}

func (s *scan) fail(rule, line, problem string) error {
	return &Error{
		Line:    s.lineNo,
		Rule:    rule,
		Text:    line,
		Message: problem,
	}
}

// merge applies policy to field and reports whether the value was taken.
func merge(field *string, value string, policy Policy) bool {
	if value == "" {
		return false
	}
	switch policy {
	case PolicyAccumulate:
		if *field == "" {
			*field = value
		} else {
			*field += accumulateSeparator + value
		}
		return true
	default:
		if *field != "" {
			return false
		}
		*field = value
		return true
	}
}

// ParsePolicy converts a config value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirstSeen:
		return PolicyFirstSeen, nil
	case PolicyAccumulate:
		return PolicyAccumulate, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (want %q or %q)", s, PolicyFirstSeen, PolicyAccumulate)
	}
}
