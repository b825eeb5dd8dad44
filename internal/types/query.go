package types

import "github.com/go-playground/validator/v10"

// UnitQuery holds the query parameters accepted by the unit listing endpoints.
type UnitQuery struct {
	Letter string `json:"letter,omitempty" validate:"omitempty,len=1,alpha"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json yaml csv markdown html"`
}

// Validate validates the UnitQuery using the validator.
func (q *UnitQuery) Validate() error {
	validate := validator.New()
	return validate.Struct(q)
}
