package middleware

import (
	"net/http"

	zauth "github.com/chukwuma7703/zauth"
)

// RequireRole wraps [Guard] and additionally rejects principals whose role is
// not in the allowed set. Rejections are 403; missing or invalid credentials
// remain 401 via Guard.
func RequireRole(engine *zauth.Engine, roles ...zauth.Role) func(http.Handler) http.Handler {
	allowed := make(map[zauth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
