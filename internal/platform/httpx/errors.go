package httpx

import (
	"errors"
	"net/http"
)

// ErrValidation marks a request rejected at the decoding boundary; DecodeJSON
// wraps malformed or unexpected payloads with it.
var ErrValidation = errors.New("validation failed")

// RespondError maps boundary errors to HTTP responses. Handlers that need a
// machine-readable code call ProblemCode directly before falling back here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrBodyTooLarge):
		Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
