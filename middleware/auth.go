package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jottdapp/backend/auth"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

type userKey struct{}

// RequireAuth resolves the session cookie into a verified user and stores it
// on the request context. Requests without a valid session get a 403 with
// {"detail":"unauthorized"}, which is the status the frontend expects.
func RequireAuth(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				token = cookie.Value
			}

			user, err := resolver.ResolveOptional(r.Context(), token)
			if err != nil {
				writeDetail(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if user == nil {
				writeDetail(w, http.StatusForbidden, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns ctx carrying the resolved user.
func WithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user set by RequireAuth, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	user, _ := ctx.Value(userKey{}).(*auth.User)
	return user
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
