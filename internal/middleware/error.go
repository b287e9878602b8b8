package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/madadental/clinic-api/internal/handler"
)

// ErrorHandler turns errors attached via c.Error into a JSON response. The
// HTTP status comes from the error itself when it exposes StatusCode.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		message := "internal server error"
		if err, ok := lastErr.Err.(interface {
			StatusCode() int
			Error() string
		}); ok {
			status = err.StatusCode()
			message = err.Error()
		}

		c.JSON(status, handler.NewErrorResponse(message))
	}
}
