package middleware

import (
	"net/http"
	"strings"

	"ferdi-server/backend/common"
	ferdierrors "ferdi-server/backend/common/errors"
	"ferdi-server/backend/service"

	"github.com/gin-gonic/gin"
)

// JWTAuth resolves the bearer token to a user identity. Every protected
// route fails the same way: 401 with the structured error body. The desktop
// client additionally matches the message text, so it stays fixed.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthenticated(c)
			return
		}

		claims, err := service.ValidateToken(parts[1])
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	common.RespErrorCode(c, http.StatusUnauthorized, "Missing or invalid api token", ferdierrors.ErrUnauthenticated)
	c.Abort()
}
