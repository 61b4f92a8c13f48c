package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/auth"
	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/model"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "Access denied. No token provided.", "unauthorized")
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token", "unauthorized")
			return
		}

		c.Set(userIDKey, claims.ID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Access denied. Not authorized.", "forbidden")
	}
}

func GetUserID(c *gin.Context) int64 {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(int64)
	return uid
}

func GetUserRole(c *gin.Context) model.Role {
	role, _ := c.Get(userRoleKey)
	r, _ := role.(model.Role)
	return r
}

func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Message: message, Code: code})
}
