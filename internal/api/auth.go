package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/RowanDark/cryptolab/internal/logging"
)

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// requireToken enforces the static bearer token. With no token configured
// every request passes.
func (s *Server) requireToken(next http.Handler) http.Handler {
	want := strings.TrimSpace(s.cfg.AuthToken)
	if want == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := bearerToken(r)
		if !ok {
			s.deny(w, r, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			s.deny(w, r, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) deny(w http.ResponseWriter, r *http.Request, reason string) {
	_ = s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventAuthDenied,
		Outcome:   logging.OutcomeDenied,
		Reason:    reason,
		Metadata: map[string]any{
			"path":   r.URL.Path,
			"remote": r.RemoteAddr,
		},
	})
	s.writeError(w, http.StatusUnauthorized, "unauthorised")
}
