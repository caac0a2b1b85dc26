package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/calagora/server/internal/api/middleware"
	"github.com/calagora/server/internal/auth"
	"github.com/calagora/server/internal/auth/oauth"
	"github.com/calagora/server/internal/domain/users"
)

func withSessionClaims(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(middleware.ContextWithSessionClaims(r.Context(), claims))
}

func newAuthHandler() (*AuthHandler, *users.Service, *auth.SessionManager) {
	svc := users.NewService(newMemCollection(true), zerolog.Nop())
	sessions := auth.NewSessionManager("test-secret", time.Hour, "calagora")
	client := oauth.NewClient(oauth.Config{
		ClientID:    "test-client-id",
		CallbackURL: "http://localhost:8080/auth/github/callback",
	})
	return NewAuthHandler(svc, sessions, client, "test", false), svc, sessions
}

func TestLoginRedirectsToGitHub(t *testing.T) {
	handler, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodGet, "/auth/github/login", nil)
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "github.com/login/oauth/authorize")

	cookies := rec.Result().Cookies()
	var stateCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == stateCookieName {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	require.NotEmpty(t, stateCookie.Value)
	require.True(t, stateCookie.HttpOnly)
	require.Contains(t, rec.Header().Get("Location"), "state="+stateCookie.Value)
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	handler, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRejectsMissingState(t *testing.T) {
	handler, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=abc&code=abc", nil)
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRejectsMissingCode(t *testing.T) {
	handler, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=expected", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	handler, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, auth.SessionCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}

func TestMeReturnsLoggedInUser(t *testing.T) {
	handler, svc, sessions := newAuthHandler()

	created, err := svc.Create(context.Background(), map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com",
	})
	require.NoError(t, err)

	token, err := sessions.Issue(created.ID, created.Email)
	require.NoError(t, err)
	claims, err := sessions.Validate(token)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = withSessionClaims(req, claims)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var me users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, created.ID, me.ID)
	require.Equal(t, "ada@example.com", me.Email)
}

func TestMeWithoutClaims(t *testing.T) {
	handler, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeWithStaleClaims(t *testing.T) {
	handler, _, sessions := newAuthHandler()

	token, err := sessions.Issue("507f1f77bcf86cd799439011", "gone@example.com")
	require.NoError(t, err)
	claims, err := sessions.Validate(token)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = withSessionClaims(req, claims)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSplitDisplayName(t *testing.T) {
	cases := []struct {
		name, login, first, last string
	}{
		{"Ada Lovelace", "ada", "Ada", "Lovelace"},
		{"Ada", "ada", "Ada", ""},
		{"", "ada", "ada", ""},
		{"Ada King Lovelace", "ada", "Ada", "King Lovelace"},
	}

	for _, tc := range cases {
		first, last := splitDisplayName(tc.name, tc.login)
		require.Equal(t, tc.first, first)
		require.Equal(t, tc.last, last)
	}
}
