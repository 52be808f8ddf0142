package auth

import (
	"log/slog"
	"net/http"

	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
)

type RBACAuthorization struct {
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	if checker == nil {
		checker = NewPermissionChecker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RBACAuthorization{
		checker: checker,
		logger:  logger,
	}
}

// Check requires the permission on a single handler.
func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			ra.logger.Warn("authorization check failed: user not found in context")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !ra.checker.Allowed(user, permission) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"username", user.Username,
				"role", user.Role,
				"required_permission", permission)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}

// RequireRole lets only the listed roles through.
func (ra *RBACAuthorization) RequireRole(roles ...coreuser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.HasRole(roles...) {
				ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"username", user.Username,
					"role", user.Role,
					"allowed_roles", roles)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRole(coreuser.RoleDeveloper, coreuser.RoleAdmin, coreuser.RoleMaster)
}

// RequireDeveloper guards maintenance endpoints such as bulk pushes.
func (ra *RBACAuthorization) RequireDeveloper() func(http.Handler) http.Handler {
	return ra.RequireRole(coreuser.RoleDeveloper)
}
