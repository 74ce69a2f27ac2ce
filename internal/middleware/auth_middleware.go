package middleware

import (
	"context"
	"net/http"
	"strings"

	"clip-share/internal/services"
	"clip-share/internal/transport/httpdto"
	"clip-share/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to the signed-in identity.
type Authenticator interface {
	Authenticate(token string) (*services.Identity, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Authenticate(extractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithIdentity(c.Request.Context(), identity)
		ctx = context.WithValue(ctx, logger.UserIdKey, identity.UID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuth attaches an identity when a valid token is present and lets the request
// through either way.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.Next()
			return
		}
		if identity, err := auth.Authenticate(token); err == nil {
			ctx := services.WithIdentity(c.Request.Context(), identity)
			ctx = context.WithValue(ctx, logger.UserIdKey, identity.UID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
