package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gendai-ordering/internal/auth"
	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/service"
)

const identityKey = "authIdentity"

// Identity is the resolved caller attached to the request context by the
// auth middleware. It never carries the password hash.
type Identity struct {
	ID       int64
	Username string
	Email    string
	Role     domain.Role
}

// CurrentIdentity returns the identity attached by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// AuthMiddleware resolves the caller from the bearer token and rejects the
// request otherwise. The response codes are a contract the frontend switches
// on: token problems (403) prompt a re-login, account problems (401/423)
// surface account state.
func AuthMiddleware(authSvc service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Access denied. No token provided.",
				"code":    "NO_TOKEN",
			})
			return
		}

		user, err := authSvc.VerifyToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"message": "Token expired",
					"code":    "TOKEN_EXPIRED",
				})
			case errors.Is(err, auth.ErrTokenInvalid):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"message": "Invalid token",
					"code":    "INVALID_TOKEN",
				})
			case errors.Is(err, service.ErrAccountInvalid):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "Invalid or deactivated account",
					"code":    "INVALID_ACCOUNT",
				})
			case errors.Is(err, service.ErrAccountLocked):
				c.AbortWithStatusJSON(http.StatusLocked, gin.H{
					"message": "Account temporarily locked due to multiple failed attempts",
					"code":    "ACCOUNT_LOCKED",
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message": "Authentication failed",
					"code":    "SERVER_ERROR",
				})
			}
			return
		}

		c.Set(identityKey, Identity{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		})
		c.Next()
	}
}

// AdminRequired restricts an operation to admin accounts. All accounts
// default to admin in the current domain model, so this is a latent
// extension point rather than an active restriction.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok || identity.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Access denied. Admin privileges required.",
				"code":    "ADMIN_REQUIRED",
			})
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
