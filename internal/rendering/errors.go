// Package rendering writes unit tables as HTML pages and export documents.
package rendering

import "fmt"

// builtinTemplate names the embedded table template in errors.
const builtinTemplate = "built-in"

// TemplateError reports a table template that could not be loaded or executed.
// Template is the file path, or "built-in" for the embedded template.
type TemplateError struct {
	Template string
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	msg := fmt.Sprintf("%s template: %s", e.Template, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// RenderError reports an export that failed while writing Format.
type RenderError struct {
	Format  Format
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("%s export: %s", e.Format, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Cause }
