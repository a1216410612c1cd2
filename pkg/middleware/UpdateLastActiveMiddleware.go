package middleware

import (
	"context"
	"net/http"

	"github.com/Dias221467/Social_Backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type lastActiveUpdater interface {
	UpdateLastActive(ctx context.Context, userID primitive.ObjectID) error
}

// UpdateLastActiveMiddleware stamps the caller's last activity. Failures are
// logged and never block the request.
func UpdateLastActiveMiddleware(users lastActiveUpdater) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := GetUserFromContext(r.Context()); claims != nil {
				if userID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
					if err := users.UpdateLastActive(r.Context(), userID); err != nil {
						logger.Log.WithError(err).Warn("Failed to update last active")
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
