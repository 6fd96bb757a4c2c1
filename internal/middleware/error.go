package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/logger"
)

// ErrorHandler renders the last error a handler attached to the context.
// Anything that is not an AppError becomes INTERNAL_ERROR and its text is
// only logged.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		cause := c.Errors.Last().Err
		appErr, ok := apperrors.As(cause)
		if !ok {
			appErr = apperrors.Wrap(apperrors.ErrInternalServer, cause)
		}

		fields := []interface{}{
			"code", appErr.Code,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDKey),
		}
		if appErr.Internal != nil {
			fields = append(fields, "error", appErr.Internal.Error())
		}
		switch {
		case appErr.StatusCode >= http.StatusInternalServerError:
			logger.Get().Errorw("Request failed", fields...)
		case appErr.Internal != nil:
			logger.Get().Warnw("Request rejected", fields...)
		}

		if appErr.Retryable || appErr.StatusCode == http.StatusTooManyRequests {
			c.Header("Retry-After", "5")
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":      appErr.Code,
				"message":   appErr.Message,
				"retryable": appErr.Retryable,
			},
		})
	}
}
