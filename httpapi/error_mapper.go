package httpapi

import (
	"batepapo/errors"
	stderrors "errors"
	"net/http"
)

// statusFor maps core error kinds to the original service's status
// codes. Unknown errors are treated as storage failures.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrValidation):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, errors.ErrAlreadyPresent):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrForbidden):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "err", err)
	}
	w.WriteHeader(status)
}
