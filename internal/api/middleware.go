package api

import (
	"context"
	"net/http"

	"finedge/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// withAuth verifies the bearer token and stashes the identity in the context.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := auth.ExtractToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}
		identity, err := s.tokens.Verify(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(identityKey).(*auth.Identity)
	if identity == nil {
		return &auth.Identity{}
	}
	return identity
}
