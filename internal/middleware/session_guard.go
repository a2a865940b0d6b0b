// internal/middleware/session_guard.go
package middleware

import (
	"net/http"
	"strings"

	"rtx-client/internal/pkg/response"
	"rtx-client/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// StatusSource reports the current authentication status.
type StatusSource interface {
	Status() auth.Status
}

// SessionGuard blocks access to authenticated routes. Page requests are
// redirected to the login form; API and socket requests get a 401 so the
// page script can react.
func SessionGuard(source StatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if source.Status() == auth.StatusAuthenticated {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/ws") {
			response.Unauthorized(c, "sessão não autenticada")
			return
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}
