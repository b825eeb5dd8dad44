package binning

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/unit-browser/internal/types"
)

var anchorPattern = regexp.MustCompile(`<a\s[^>]*>([^<]*)</a>`)

// Bins maps an upper-cased leading character to the number of labels that
// start with it. Letters with no labels are absent.
type Bins map[string]int

// Bin groups display labels by the upper-cased first character of their
// anchor text. Every label must carry a non-empty anchor.
func Bin(displayLabels []string) (Bins, error) {
	bins := Bins{}
	for i, label := range displayLabels {
		key, err := Key(label)
		if err != nil {
			return nil, &Error{Index: i, Label: label, Cause: err}
		}
		bins[key]++
	}
	return bins, nil
}

// BinUnits bins the display labels of units.
func BinUnits(units []*types.Unit) (Bins, error) {
	labels := make([]string, len(units))
	for i, u := range units {
		labels[i] = u.DisplayLabel
	}
	return Bin(labels)
}

// AnchorText returns the unescaped visible text of the first anchor in label.
func AnchorText(label string) (string, bool) {
	m := anchorPattern.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return html.UnescapeString(m[1]), true
}

// Key returns the bin key of a display label.
func Key(label string) (string, error) {
	text, ok := AnchorText(label)
	if !ok {
		return "", errMissingAnchor
	}
	r, _ := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return "", errEmptyAnchor
	}
	return string(unicode.ToUpper(r)), nil
}

// Count returns the number of labels in a bin; absent letters count zero.
func (b Bins) Count(letter string) int {
	return b[strings.ToUpper(letter)]
}

// Total returns the number of labels across all bins.
func (b Bins) Total() int {
	total := 0
	for _, n := range b {
		total += n
	}
	return total
}

// Letters returns the populated bin keys in ascending order.
func (b Bins) Letters() []string {
	letters := make([]string, 0, len(b))
	for k := range b {
		letters = append(letters, k)
	}
	sort.Strings(letters)
	return letters
}
