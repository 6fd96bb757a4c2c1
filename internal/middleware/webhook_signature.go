package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chowvest/internal/payment"
)

const (
	// RawBodyKey holds the verified webhook body in the Gin context.
	RawBodyKey = "rawBody"

	maxWebhookBody = 1 << 20
)

// WebhookSignatureMiddleware creates a Gin middleware that validates the
// payment processor's HMAC-SHA512 signature over the raw request body.
func WebhookSignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "WEBHOOK_NOT_CONFIGURED", "message": "Webhook endpoint is not configured"}})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				gin.H{"error": gin.H{"code": "INVALID_INPUT", "message": "Webhook body could not be read"}})
			return
		}

		if !payment.VerifySignature(secret, body, c.GetHeader(payment.SignatureHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_SIGNATURE", "message": "Invalid or missing webhook signature"}})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(RawBodyKey, body)
		c.Next()
	}
}
