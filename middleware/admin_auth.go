package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"vikas-assistant-backend/apperrors"
)

// RequireAdminToken admits requests carrying "Authorization: Bearer <token>".
// With no token configured every request is rejected.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			abortWithError(c, apperrors.NewUnauthorizedError("admin access is disabled"))
			return
		}

		presented, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			abortWithError(c, apperrors.NewUnauthorizedError("missing or invalid bearer token"))
			return
		}

		c.Next()
	}
}
