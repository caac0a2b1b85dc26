// Package audit records an audit trail of mutating API requests.
package audit

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Logger writes one structured audit entry per mutating request.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "audit").Logger()}
}

type auditWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *auditWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

// Middleware records POST, PATCH, PUT, and DELETE requests with their
// outcome. Reads are not audited.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		recorder := &auditWriter{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		outcome := "success"
		if recorder.status >= 400 {
			outcome = "failure"
		}

		l.log.Info().
			Str("action", r.Method).
			Str("path", r.URL.Path).
			Str("client_ip", clientIP(r)).
			Int("status", recorder.status).
			Str("outcome", outcome).
			Msg("audit")
	})
}

// clientIP reports the direct connection address. Forwarding headers are
// not trusted.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
