package problem

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteProblemSetsContentTypeAndStatus(t *testing.T) {
	recorder := httptest.NewRecorder()

	WriteProblem(recorder, ProblemDetails{
		Type:   "https://calagora.dev/problems/not-found",
		Title:  "Not found",
		Status: 404,
	})

	require.Equal(t, 404, recorder.Code)
	require.Equal(t, "application/problem+json", recorder.Header().Get("Content-Type"))

	var decoded ProblemDetails
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	require.Equal(t, "Not found", decoded.Title)
}

func TestWriteHidesInternalDetailOutsideDevelopment(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/users", nil)

	Write(recorder, request, 500, "https://calagora.dev/problems/server-error", "Server error", ErrConflict, "production")

	var decoded ProblemDetails
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	require.Equal(t, "Internal Server Error", decoded.Detail)
	require.Equal(t, "/api/v1/users", decoded.Instance)
}

func TestWriteExposesDetailInDevelopment(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/users", nil)

	Write(recorder, request, 409, "https://calagora.dev/problems/conflict", "Conflict", ErrConflict, "development")

	var decoded ProblemDetails
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	require.Equal(t, "conflict", decoded.Detail)
}

func TestWritePreservesFieldErrorOrder(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/users", nil)

	Write(recorder, request, 422, "https://calagora.dev/problems/validation-error", "Invalid request", nil, "test",
		WithFieldErrors([]FieldError{
			{Field: "first_name", Message: "first_name is required."},
			{Field: "email", Message: "email must be a valid email address."},
		}))

	var decoded ProblemDetails
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	require.Len(t, decoded.Errors, 2)
	require.Equal(t, "first_name", decoded.Errors[0].Field)
	require.Equal(t, "email", decoded.Errors[1].Field)
}
