package middleware

import (
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/pkg/logger"
)

// RequirePermissions lets a request through when the caller holds any of the
// screen permissions. Managers always pass.
func RequirePermissions(checker auth.PermissionChecker, permissions ...string) func(http.Handler) http.Handler {
	if checker == nil {
		checker = auth.NewPermissionChecker()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !checker.HasAnyPermission(user, permissions) {
				logger.From(r.Context()).Warn("access denied: user lacks required permissions",
					"username", user.Username,
					"required_permissions", permissions,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
