package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/token"
)

// bearerToken extracts "Authorization: Bearer <token>". ok is false when the header is absent.
func bearerToken(r *http.Request) (tok string, present bool) {
	for _, v := range r.Header.Values("Authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:]), true
		}
	}
	return "", false
}

// Authenticate verifies the bearer access token and stores the identity in the context.
// Requests without a bearer token pass through anonymously; RequireRoles rejects them
// where a role is needed.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, present := bearerToken(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.issuer.VerifyAccess(tok)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				s.writeError(w, r, errs.ErrTokenExpired)
				return
			}
			s.writeError(w, r, errs.ErrUnauthorized)
			return
		}
		id, err := claims.Identity()
		if err != nil {
			s.writeError(w, r, errs.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRoles admits callers holding at least one of allowed.
// No identity or no roles: 401. Roles present but none allowed: 403.
func (s *Server) RequireRoles(allowed ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromCtx(r.Context())
			if !ok || len(id.Roles) == 0 {
				s.writeError(w, r, errs.ErrUnauthorized)
				return
			}
			if !id.HasAnyRole(allowed...) {
				s.writeError(w, r, errs.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// anyUser is the role set of every authenticated account.
var anyUser = []string{model.RoleBasic, model.RolePro, model.RoleAdmin}

// authors may create posts.
var authors = []string{model.RolePro, model.RoleAdmin}
