package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madadental/clinic-api/internal/handler"
)

// Maintenance rejects requests with 503 while the dashboard maintenance flag
// is on. Mount it on route groups that should go dark; the sign-in route
// stays outside so staff can still authenticate.
func Maintenance(enabled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled() {
			c.JSON(http.StatusServiceUnavailable, handler.NewErrorResponse("service under maintenance"))
			c.Abort()
			return
		}
		c.Next()
	}
}
