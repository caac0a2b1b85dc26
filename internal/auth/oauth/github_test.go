package oauth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorizationURL(t *testing.T) {
	client := NewClient(Config{
		ClientID:    "test-client-id",
		CallbackURL: "http://localhost:8080/auth/github/callback",
	})

	authURL := client.AuthorizationURL("test-state")

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	require.Equal(t, "github.com", parsed.Host)
	require.Equal(t, "/login/oauth/authorize", parsed.Path)

	query := parsed.Query()
	require.Equal(t, "test-client-id", query.Get("client_id"))
	require.Equal(t, "http://localhost:8080/auth/github/callback", query.Get("redirect_uri"))
	require.Equal(t, "user:email", query.Get("scope"))
	require.Equal(t, "test-state", query.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "test-code", r.FormValue("code"))
		require.Equal(t, "test-client-id", r.FormValue("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_token","token_type":"bearer"}`))
	}))
	defer server.Close()

	client := NewClient(Config{ClientID: "test-client-id", ClientSecret: "secret"})
	client.tokenURL = server.URL

	token, err := client.ExchangeCode(context.Background(), "test-code")
	require.NoError(t, err)
	require.Equal(t, "gho_token", token)
}

func TestExchangeCodeOAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code is incorrect."}`))
	}))
	defer server.Close()

	client := NewClient(Config{ClientID: "test-client-id"})
	client.tokenURL = server.URL

	_, err := client.ExchangeCode(context.Background(), "stale-code")
	require.ErrorContains(t, err, "bad_verification_code")
}

func TestFetchProfilePublicEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer gho_token", r.Header.Get("Authorization"))
		require.Equal(t, "/user", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"login":"ada","email":"ada@example.com","name":"Ada Lovelace"}`))
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.apiBaseURL = server.URL

	profile, err := client.FetchProfile(context.Background(), "gho_token")
	require.NoError(t, err)
	require.Equal(t, int64(42), profile.ID)
	require.Equal(t, "ada", profile.Login)
	require.Equal(t, "ada@example.com", profile.Email)
	require.Equal(t, "Ada Lovelace", profile.Name)
}

func TestFetchProfilePrivateEmailFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":42,"login":"ada","email":"","name":"Ada Lovelace"}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[
				{"email":"old@example.com","primary":false,"verified":true},
				{"email":"ada@example.com","primary":true,"verified":true}
			]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.apiBaseURL = server.URL

	profile, err := client.FetchProfile(context.Background(), "gho_token")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", profile.Email)
}

func TestFetchProfileNoVerifiedEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":42,"login":"ada","email":"","name":""}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[{"email":"ada@example.com","primary":true,"verified":false}]`))
		}
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.apiBaseURL = server.URL

	_, err := client.FetchProfile(context.Background(), "gho_token")
	require.ErrorContains(t, err, "no verified email")
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	require.NoError(t, err)
	second, err := GenerateState()
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	decoded, err := base64.URLEncoding.DecodeString(first)
	require.NoError(t, err)
	require.Len(t, decoded, 32)
}
