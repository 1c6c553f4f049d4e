package middleware

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/identity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Identity attaches the caller's session identity to the request context.
// Requests without a valid cookie start a new guest session.
func Identity(cookies identity.Cookies, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := cookies.Read(r)
			if !ok {
				id = identity.Guest()
				if err := cookies.Write(w, id); err != nil {
					log.Error("Failed to issue guest session", zap.Error(err))
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				log.Debug("Guest session issued", zap.String("session_id", id.SessionID))
			}
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}
