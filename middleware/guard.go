package middleware

import (
	"context"
	"net/http"
	"strings"

	zauth "github.com/chukwuma7703/zauth"
)

type principalContextKey struct{}

// PrincipalFromContext returns the verified principal attached by [Guard].
func PrincipalFromContext(ctx context.Context) (*zauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*zauth.Principal)
	return p, ok
}

// Guard returns middleware that verifies the bearer access token and
// attaches the resulting principal to the request context. Requests without
// a valid token are rejected with 401.
func Guard(engine *zauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := engine.Authenticate(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
