// Package httpx is the response boundary shared by every handler: JSON
// encoding, request decoding and the error-to-status mapping.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/observability"
)

const MaxJSONBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteRawJSON writes an already encoded JSON document unchanged.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// NoCache marks a response as not storable, used for credential responses.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError maps err to a status code and writes {"error": message}. Errors
// outside the taxonomy are logged, reported and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message, ok := apperr.Message(err)
	if !ok {
		message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		observability.FromContext(r.Context()).Error("request_failed",
			"status", status,
			"error", errorText(err),
		)
		observability.CaptureError(r.Context(), err)
	}

	WriteJSON(w, status, map[string]string{"error": message})
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidCredentials), errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a single JSON value from the request body into dst. Unknown
// fields are accepted so that extra client properties are ignored.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.BadRequest("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.BadRequest("request body is required")
		default:
			return apperr.BadRequest("invalid json body")
		}
	}

	return nil
}

func errorText(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Unwrap() != nil {
		return appErr.Error() + ": " + appErr.Unwrap().Error()
	}
	return err.Error()
}
