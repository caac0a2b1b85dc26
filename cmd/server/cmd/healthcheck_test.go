package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthcheckAgainstReadyServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/readyz", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	origURL := healthcheckURL
	defer func() { healthcheckURL = origURL }()
	healthcheckURL = server.URL + "/readyz"

	require.NoError(t, runHealthcheck(healthcheckCmd, nil))
}
