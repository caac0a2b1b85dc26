// Package handlers contains the HTTP handlers for the JSON API. Handlers
// decode request bodies without shaping them, hand the raw value to the
// domain services, and translate service errors into problem+json.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/calagora/server/internal/api/problem"
	"github.com/calagora/server/internal/payload"
)

const (
	problemValidation  = "https://calagora.dev/problems/validation-error"
	problemNotFound    = "https://calagora.dev/problems/not-found"
	problemConflict    = "https://calagora.dev/problems/conflict"
	problemServerError = "https://calagora.dev/problems/server-error"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// decodeBody parses the request body as arbitrary JSON. The validator is
// responsible for rejecting non-object values, so anything that parses is
// passed through as-is. An empty body decodes to nil.
func decodeBody(r *http.Request) (any, error) {
	var value any
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func fieldErrors(errs payload.Errors) []problem.FieldError {
	out := make([]problem.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, problem.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}

// writeValidationProblem renders a 422 with the ordered field errors.
func writeValidationProblem(w http.ResponseWriter, r *http.Request, errs payload.Errors, env string) {
	problem.Write(w, r, http.StatusUnprocessableEntity, problemValidation, "Invalid request", nil, env,
		problem.WithDetail("One or more fields failed validation."),
		problem.WithFieldErrors(fieldErrors(errs)))
}
