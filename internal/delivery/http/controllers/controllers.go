// Package controllers contains the HTTP handlers. Controllers parse and
// validate the wire representation, delegate to the services and map domain
// errors onto the response envelope.
package controllers

import (
	"errors"

	"eventcatalog/internal/domain"
)

// isClientError reports whether err maps to a 4xx response. Only server-side
// failures are logged at error level.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrCategoryNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrConditionsNotMet) ||
		errors.Is(err, domain.ErrInvalidInput)
}
