package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestUserLifecycleOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	base := env.Server.URL

	resp := postJSON(t, base+"/api/v1/users",
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	decodeJSON(t, resp, &created)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	// Duplicate email is rejected at the store level.
	resp = postJSON(t, base+"/api/v1/users",
		`{"first_name":"Ada","last_name":"Byron","email":"ada@example.com"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Partial update.
	req, err := http.NewRequest(http.MethodPatch, base+"/api/v1/users/"+id,
		bytes.NewReader([]byte(`{"last_name":"Byron"}`)))
	require.NoError(t, err)
	patchResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, patchResp.StatusCode)

	var updated map[string]any
	decodeJSON(t, patchResp, &updated)
	require.Equal(t, "Byron", updated["last_name"])
	require.Equal(t, "Ada", updated["first_name"])

	// Delete, then the record is gone.
	req, err = http.NewRequest(http.MethodDelete, base+"/api/v1/users/"+id, nil)
	require.NoError(t, err)
	deleteResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, deleteResp.StatusCode)
	deleteResp.Body.Close()

	getResp, err := http.Get(base + "/api/v1/users/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()
}

func TestEventValidationOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	base := env.Server.URL

	resp := postJSON(t, base+"/api/v1/events", `{"capacity":99999}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	var details struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	decodeJSON(t, resp, &details)
	require.Len(t, details.Errors, 4)
	require.Equal(t, "title is required.", details.Errors[0].Message)
	require.Equal(t, "date is required.", details.Errors[1].Message)
	require.Equal(t, "capacity must be less than or equal to 10000.", details.Errors[2].Message)
	require.Equal(t, "owner_id is required.", details.Errors[3].Message)
}

func TestEventListFilterOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	base := env.Server.URL

	owner := "507f1f77bcf86cd799439011"
	for _, visibility := range []string{"public", "private"} {
		resp := postJSON(t, base+"/api/v1/events", `{
			"title": "Event `+visibility+`",
			"date": "2026-09-01T18:00:00Z",
			"visibility": "`+visibility+`",
			"owner_id": "`+owner+`"
		}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	listResp, err := http.Get(base + "/api/v1/events?visibility=private")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list struct {
		Items []map[string]any `json:"items"`
	}
	decodeJSON(t, listResp, &list)
	require.Len(t, list.Items, 1)
	require.Equal(t, "Event private", list.Items[0]["title"])
}

func TestHealthAndMetricsOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	base := env.Server.URL

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/version"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}
