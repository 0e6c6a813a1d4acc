package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ktane-tracker/tracker/internal/models"
	"github.com/ktane-tracker/tracker/internal/tracker"
)

// DiscordIDHeader carries the caller's Discord id, set by the upstream auth proxy
const DiscordIDHeader = "X-Discord-ID"

// UserLookup resolves Discord ids to users
type UserLookup interface {
	GetUser(ctx context.Context, discordID string) (*models.User, error)
}

// IdentityMiddleware attaches the calling user to the request
type IdentityMiddleware struct {
	users UserLookup
}

// NewIdentityMiddleware creates new identity middleware
func NewIdentityMiddleware(users UserLookup) *IdentityMiddleware {
	return &IdentityMiddleware{users: users}
}

// Identify resolves the Discord id header. Requests without the header pass
// through as anonymous; an id that matches no user is rejected.
func (m *IdentityMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		discordID := strings.TrimSpace(r.Header.Get(DiscordIDHeader))
		if discordID == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetUser(r.Context(), discordID)
		if err != nil {
			if errors.Is(err, tracker.ErrUserNotFound) {
				slog.Warn("unknown discord id", "discord_id", discordID, "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "unknown_user", "no tracker account for this discord id")
				return
			}
			slog.Error("failed to identify user", "error", err, "discord_id", discordID)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to identify user")
			return
		}

		slog.Debug("identified request", "discord_id", user.DiscordID)

		ctx := ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests
func (m *IdentityMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "not_authenticated", "this endpoint requires a signed-in user")
			return
		}
		next.ServeHTTP(w, r)
	})
}
