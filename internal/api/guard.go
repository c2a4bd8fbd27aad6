package api

import (
	"context"
	"net/http"

	"clinicbook/internal/service"
)

// capability is a precondition a route declares before its handler runs.
type capability int

const (
	// Authenticated requires a valid bearer token.
	Authenticated capability = iota
	// AdminRole requires the authenticated user to hold the admin role.
	AdminRole
)

type identityKey struct{}

func withIdentity(ctx context.Context, id *service.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// identityFrom returns the caller resolved by guard, or nil on open routes.
func identityFrom(ctx context.Context) *service.Identity {
	id, _ := ctx.Value(identityKey{}).(*service.Identity)
	return id
}

// guard evaluates caps in order and stops at the first failure. Token checks
// never touch the store; AdminRole authenticates first when needed.
func (s *HTTPServer) guard(caps ...capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, c := range caps {
				id := identityFrom(ctx)
				if id == nil {
					var err error
					id, err = s.services.Auth.Authenticate(r.Header.Get("Authorization"))
					if err != nil {
						writeError(w, r, s.logger, err)
						return
					}
					ctx = withIdentity(ctx, id)
				}

				if c == AdminRole {
					if err := s.services.Auth.AuthorizeAdmin(ctx, id); err != nil {
						writeError(w, r, s.logger, err)
						return
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
