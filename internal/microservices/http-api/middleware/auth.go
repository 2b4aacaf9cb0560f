package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const (
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgInvalidToken     = "Given token not valid for any token type"
	MsgPermissionDenied = "You do not have permission to perform this action."
)

// Authenticator resolves a bearer token to an account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Authenticate loads the caller from an optional "Authorization: Bearer <token>"
// header. Requests without the header continue anonymously; a malformed header
// or a token that does not resolve to an account is rejected with 401.
func Authenticate(authn Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": MsgInvalidToken})
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": MsgInvalidToken})
				return
			}
			logger.Error("authentication lookup failed", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// RequirePermission gates the route on the collection-level check of p.
func RequirePermission(p permission.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if p.HasPermission(caller, c.Request.Method) {
			c.Next()
			return
		}
		AbortDenied(c, caller)
	}
}

// AbortDenied writes 401 for anonymous callers and 403 for authenticated ones
func AbortDenied(c *gin.Context, caller permission.Caller) {
	if !caller.Authenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": MsgNotAuthenticated})
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": MsgPermissionDenied})
}
