package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/calagora/server/internal/api/middleware"
	"github.com/calagora/server/internal/api/problem"
	"github.com/calagora/server/internal/auth"
	"github.com/calagora/server/internal/auth/oauth"
	"github.com/calagora/server/internal/domain/users"
	"github.com/calagora/server/internal/metrics"
)

// stateCookieName holds the OAuth state between the redirect to GitHub and
// the callback.
const stateCookieName = "calagora_oauth_state"

type AuthHandler struct {
	Users    *users.Service
	Sessions *auth.SessionManager
	OAuth    *oauth.Client
	Env      string
	Secure   bool
}

func NewAuthHandler(userService *users.Service, sessions *auth.SessionManager, client *oauth.Client, env string, secure bool) *AuthHandler {
	return &AuthHandler{
		Users:    userService,
		Sessions: sessions,
		OAuth:    client,
		Env:      env,
		Secure:   secure,
	}
}

// Login starts the OAuth flow: mint a state value, stash it in a short-lived
// cookie, and send the browser to GitHub.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := oauth.GenerateState()
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.OAuth.AuthorizationURL(state), http.StatusFound)
}

// Callback finishes the OAuth flow: check the state, exchange the code,
// provision a local user, and set the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		metrics.LoginsTotal.WithLabelValues("state_mismatch").Inc()
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", errors.New("state mismatch"), h.Env)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/github",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		metrics.LoginsTotal.WithLabelValues("missing_code").Inc()
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", errors.New("missing code"), h.Env)
		return
	}

	token, err := h.OAuth.ExchangeCode(r.Context(), code)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("exchange_failed").Inc()
		problem.Write(w, r, http.StatusBadGateway, problemServerError, "Login failed", err, h.Env)
		return
	}

	profile, err := h.OAuth.FetchProfile(r.Context(), token)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("profile_failed").Inc()
		problem.Write(w, r, http.StatusBadGateway, problemServerError, "Login failed", err, h.Env)
		return
	}

	firstName, lastName := splitDisplayName(profile.Name, profile.Login)
	user, err := h.Users.FindOrCreateByEmail(r.Context(), profile.Email, firstName, lastName)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("provision_failed").Inc()
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	session, err := h.Sessions.Issue(user.ID, user.Email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("session_failed").Inc()
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	http.SetCookie(w, h.Sessions.SessionCookie(session, h.Secure))
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session cookie. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.Secure))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in user's record. Mounted behind SessionAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r)
	if claims == nil {
		problem.Write(w, r, http.StatusUnauthorized, "https://calagora.dev/problems/unauthorized", "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	user, err := h.Users.Get(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusUnauthorized, "https://calagora.dev/problems/unauthorized", "Unauthorized", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// splitDisplayName turns a GitHub display name into first/last parts,
// falling back to the login when the profile has no name.
func splitDisplayName(name, login string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return login, ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
