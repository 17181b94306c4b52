package middleware

import (
	"context"
	"net/http"

	"github.com/mmeshcher/boutique-system/internal/model"
)

// RoleLookup возвращает роль пользователя по его идентификатору.
type RoleLookup func(ctx context.Context, userID int64) (model.Role, error)

// RequireAdmin пропускает только аутентифицированных пользователей с ролью ADMIN.
// Должен стоять после AuthMiddleware.
func RequireAdmin(lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			role, err := lookup(r.Context(), userID)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			if role != model.RoleAdmin {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
