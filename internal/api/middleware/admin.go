package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yootravel/internal/utils"
)

// RequireAdmin guards the dashboard. With a bcrypt hash configured it asks
// for HTTP basic auth; otherwise any authenticated chat session may enter.
func RequireAdmin(passwordHash string, session gin.HandlerFunc) gin.HandlerFunc {
	if passwordHash == "" {
		return session
	}

	return func(c *gin.Context) {
		_, pass, ok := c.Request.BasicAuth()
		if !ok || !utils.PasswordMatches(passwordHash, pass) {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			abort(c, http.StatusUnauthorized, utils.CodeUnauthorized, "admin credentials required")
			return
		}
		c.Set("role", "admin")
		c.Next()
	}
}
