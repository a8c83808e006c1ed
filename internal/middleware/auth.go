package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/types"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// Authenticator resolves a bearer token to the current user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware rejects requests without a valid session token
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			detail := "Token non valido"
			var domainErr *service.Error
			if errors.As(err, &domainErr) {
				detail = domainErr.Message
			}
			status := http.StatusUnauthorized
			code := service.ErrUnauthorized.Error()
			if !errors.Is(err, service.ErrUnauthorized) {
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("authentication failed")
				status = http.StatusInternalServerError
				code = "internal_error"
				detail = "Errore interno del server"
			}
			c.AbortWithStatusJSON(status, types.ErrorResponse{Error: code, Detail: detail})
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through otherwise
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)

	ctx := zerolog.Ctx(c.Request.Context()).With().Str("user_id", user.ID).Logger().
		WithContext(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
}

// CurrentUser returns the user attached by AuthMiddleware or OptionalAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
