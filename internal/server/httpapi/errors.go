package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"github.com/dmitrijs2005/bookmarker/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Error      string            `json:"error,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorBody{
		StatusCode: http.StatusUnauthorized,
		Message:    "Unauthorized",
	})
}

// writeError maps a service error to its response. Anything unrecognised is
// a server fault: it is logged with the cause and the client gets a generic
// message.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		body := errorBody{
			StatusCode: http.StatusBadRequest,
			Message:    "Validation failed",
			Error:      http.StatusText(http.StatusBadRequest),
		}
		var fields validation.Errors
		if errors.As(err, &fields) {
			body.Details = make(map[string]string, len(fields))
			for name, ferr := range fields {
				body.Details[name] = ferr.Error()
			}
		} else {
			body.Message = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, body)

	case errors.Is(err, common.ErrDuplicateCredential):
		writeForbidden(w, common.ErrDuplicateCredential)

	case errors.Is(err, common.ErrInvalidCredential):
		writeForbidden(w, common.ErrInvalidCredential)

	case errors.Is(err, common.ErrInvalidToken):
		logger.Warn(r.Context(), "unauthorized", "path", r.URL.Path, "reason", err)
		writeUnauthorized(w)

	default:
		logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
		})
	}
}

func writeForbidden(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusForbidden, errorBody{
		StatusCode: http.StatusForbidden,
		Message:    err.Error(),
		Error:      http.StatusText(http.StatusForbidden),
	})
}
