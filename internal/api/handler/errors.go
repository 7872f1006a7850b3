package handler

import (
	"net/http"

	"github.com/mcoot/roster/internal/api/apierr"
	"github.com/mcoot/roster/internal/api/request"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decode reads a typed JSON body, writing INVALID_REQUEST on failure.
// It reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, request.MaxBodyBytes)
	if err := request.Decode(r.Body, dst); err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return false
	}
	return true
}
