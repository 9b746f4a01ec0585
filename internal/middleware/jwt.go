package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
	// ContextToken is the key for the raw bearer token in gin context.
	ContextToken = "auth_token"
)

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// JWT returns a middleware that requires a live bearer token and sets the caller in context.
// A missing or malformed header is 401; a rejected token is 403.
func JWT(authn Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "No authorization header provided")
			c.Abort()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			response.Unauthorized(c, "No token provided")
			c.Abort()
			return
		}
		id, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindAuth {
				response.Forbidden(c, apperror.PublicMessage(err, "Invalid or expired token"))
			} else {
				logger.Error("authenticate", zap.Error(err))
				response.Internal(c, "Authentication error")
			}
			c.Abort()
			return
		}
		setIdentity(c, id, token)
		c.Next()
	}
}

// OptionalAuth sets the caller when a live token is presented and otherwise
// continues anonymously.
func OptionalAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if id, err := authn.Authenticate(c.Request.Context(), token); err == nil {
				setIdentity(c, id, token)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func setIdentity(c *gin.Context, id *models.Identity, token string) {
	c.Set(ContextUserID, id.UserID)
	c.Set(ContextUserEmail, id.Email)
	c.Set(ContextToken, token)
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Token returns the bearer token the caller authenticated with.
func Token(c *gin.Context) string {
	return c.GetString(ContextToken)
}
