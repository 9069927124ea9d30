package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextClaims   = "token_claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(validator TokenValidator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		if !authenticate(c, validator, log, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the user when a token is sent. Requests without an
// Authorization header continue anonymously; a bad token is still a 401.
func OptionalAuth(validator TokenValidator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header."})
			return
		}
		if !authenticate(c, validator, log, token) {
			return
		}
		c.Next()
	}
}

// authenticate answers 401 only for tokens the validator rejects; a failing
// store behind it is a 500.
func authenticate(c *gin.Context, validator TokenValidator, log *logger.Logger, token string) bool {
	claims, err := validator.ValidateToken(c.Request.Context(), token)
	if errors.Is(err, service.ErrInvalidToken) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return false
	}
	if err != nil {
		if log != nil {
			log.Error("Token validation failed",
				"error", err,
				"path", c.Request.URL.Path,
				"request_id", GetRequestID(c),
			)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: "internal server error"})
		return false
	}

	// Store user info in context
	c.Set(ContextClaims, claims)
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	return true
}

// bearerToken accepts "Token <jwt>" and "Bearer <jwt>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

// Claims returns the token claims of an authenticated request.
func Claims(c *gin.Context) (*types.TokenClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*types.TokenClaims)
	return claims, ok
}

// CurrentViewer returns the identity of the request; anonymous when no token
// was accepted.
func CurrentViewer(c *gin.Context) service.Viewer {
	claims, ok := Claims(c)
	if !ok {
		return service.Anonymous()
	}
	return service.Viewer{ID: claims.UserID, IsStaff: claims.IsStaff}
}
