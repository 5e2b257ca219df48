package arenaserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/cory-johannsen/arena/internal/identity"
)

type contextKey int

const (
	// accountContextKey stores the resolved identity.Account on requests
	// that passed requireAuth.
	accountContextKey contextKey = iota
)

// requireAuth resolves the Authorization bearer key to an account and
// stores it on the request context. Handlers behind it only ever see
// resolved identities, never raw keys.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		account, err := s.ids.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin guards the admin endpoints behind the X-Admin-Secret
// header. An empty configured secret disables the endpoints outright.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminSecret == "" || r.Header.Get("X-Admin-Secret") != s.cfg.AdminSecret {
			s.writeError(w, http.StatusForbidden, "Invalid admin secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accountFrom returns the identity stored by requireAuth.
//
// Precondition: the request passed through requireAuth.
func accountFrom(ctx context.Context) identity.Account {
	account, _ := ctx.Value(accountContextKey).(identity.Account)
	return account
}
