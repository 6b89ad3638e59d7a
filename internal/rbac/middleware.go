package rbac

import (
	"net/http"
)

// Require enforces a single permission under DefaultPolicy.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return DefaultPolicy.Allows(role, perm) })
}

// RequireAny lets the request through when the role holds any of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return DefaultPolicy.AllowsAny(role, perms...) })
}

func guard(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allowed(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
