// Package server serves the unit table, filter tokens and exports over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/extract"
	"github.com/jonathan/unit-browser/internal/fetch"
	"github.com/jonathan/unit-browser/internal/filter"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		fieldErrs     validator.ValidationErrors
		notFoundErr   *ErrNotFound
		fetchErr      *fetch.Error
		extractErr    *extract.Error
		binErr        *binning.Error
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErrs), errors.Is(err, filter.ErrInvalidLetter):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &extractErr), errors.As(err, &binErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
