package middleware

import (
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/pkg/logger"
)

// UserContext adds the caller's role and store to the request logger. It
// must run after the auth middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "role", string(user.Role), "loja_id", user.StoreID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
