// Package types provides type definitions for structured data used throughout the unit browser.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Unit is one record extracted from a unit block of the vocabulary text.
type Unit struct {
	ID             string `json:"id" yaml:"id"`
	DisplayLabel   string `json:"display_label" yaml:"display_label"` // HTML anchor; sort and bin key
	Label          string `json:"label" yaml:"label"`
	LabelLanguage  string `json:"-" yaml:"-"` // language tag of Label, only used while resolving
	UnitCode       string `json:"unit_code" yaml:"unit_code"`
	Description    string `json:"description" yaml:"description"`
	Classification string `json:"classification" yaml:"classification"`
}

// Columns lists the table columns in display order.
var Columns = []string{"Unit", "Label", "UCUM", "Description", "Quantity Kind"}

// Cells returns the row values in the order of Columns.
func (u *Unit) Cells() []string {
	return []string{u.DisplayLabel, u.Label, u.UnitCode, u.Description, u.Classification}
}

// UnitList is the exported document wrapping a sequence of units.
type UnitList struct {
	Source string  `json:"source" yaml:"source"`
	Letter string  `json:"letter,omitempty" yaml:"letter,omitempty"`
	Count  int     `json:"count" yaml:"count"`
	Units  []*Unit `json:"units" yaml:"units"`
}
