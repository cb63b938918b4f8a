package middleware

import (
	"context"
	"net/http"

	"timebank/internal/models"
)

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

// RequireCapability rejects requests whose authenticated user lacks the
// named capability flag. The full guard still re-checks inside the service;
// this only keeps obviously unauthorized requests off the write path.
func RequireCapability(users UserStore, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				http.Error(w, "unable to verify user", http.StatusInternalServerError)
				return
			}
			if !hasFlag(user, capability) {
				http.Error(w, "missing required capability", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasFlag(user models.User, capability string) bool {
	switch capability {
	case "can_request":
		return user.CanRequest
	case "can_allocate":
		return user.CanAllocate
	case "can_hold":
		return user.CanHold
	case "can_charge":
		return user.CanCharge
	case "can_refund":
		return user.CanRefund
	}
	return false
}
