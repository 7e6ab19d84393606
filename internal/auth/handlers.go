package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// AnonymousHandler starts an implicit session: every caller gets a fresh
// session id and a token for it, no credentials involved.
func AnonymousHandler(secret []byte, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.NewString()

		token, err := GenerateToken(secret, sessionID)
		if err != nil {
			logger.Error("sign session token", "error", err)
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": sessionID,
			"token":      token,
		})
	}
}

func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := SessionIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": sid,
		})
	}
}
