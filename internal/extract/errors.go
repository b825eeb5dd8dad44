// Package extract turns a line-oriented unit vocabulary dump into unit records.
package extract

import "fmt"

// Error reports a line that carries a recognized prefix but not the payload
// shape that prefix requires. Extraction stops at the first Error.
type Error struct {
	Source  string // input name, set when several inputs are extracted
	Line    int    // 1-based line number
	Rule    string // rule that matched the line prefix
	Text    string // offending line
	Message string
	Cause   error
}

func (e *Error) Error() string {
	where := fmt.Sprintf("line %d", e.Line)
	if e.Source != "" {
		where = fmt.Sprintf("%s line %d", e.Source, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("extraction error at %s (%s): %s: %v", where, e.Rule, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error at %s (%s): %s: %q", where, e.Rule, e.Message, e.Text)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
