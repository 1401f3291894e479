package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shelfflix_backend/internal/api"
	"shelfflix_backend/internal/feature/auth/domain/entity"
	"shelfflix_backend/internal/feature/auth/usecase"
)

// ContextUser is the gin context key holding the authenticated *entity.User.
const ContextUser = "currentUser"

// Resolver resolves a session id to its user.
type Resolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*entity.User, error)
}

// RequireSession returns a Gin middleware that restricts access to requests
// carrying a live session cookie.
func RequireSession(cookies *Cookies, resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.ResolveSession(c.Request.Context(), cookies.SessionID(c.Request))
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
				return
			}
			slog.Error("failed to resolve session", "error", err, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load session"})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireSession.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok && user != nil
}
