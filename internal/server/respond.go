package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/moodx/internal/shared"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON error payload.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps err onto a status code.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, shared.ErrValidationFailed), errors.Is(err, shared.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid"
	}
	writeJSON(w, status, errorBody{Message: err.Error(), Code: code})
}

// decodeBody reads a JSON body into v.
func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", shared.ErrInvalidInput, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%w: empty body", shared.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// prefers reports whether the Prefer header contains value.
func prefers(r *http.Request, value string) bool {
	for _, part := range strings.Split(r.Header.Get("Prefer"), ",") {
		if strings.TrimSpace(part) == value {
			return true
		}
	}
	return false
}
