package api

import (
	"errors"
	"net/http"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var missingHandler *domain.MissingHandlerError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &missingHandler):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
