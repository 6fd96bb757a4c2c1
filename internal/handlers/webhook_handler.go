package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/logger"
	"chowvest/internal/middleware"
	"chowvest/internal/payment"
	"chowvest/internal/services"
)

// WebhookHandler receives payment gateway callbacks. Requests reach it only
// after the signature middleware has verified them.
type WebhookHandler struct {
	depositService services.DepositServicer
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(depositService services.DepositServicer) *WebhookHandler {
	return &WebhookHandler{depositService: depositService}
}

// Paystack confirms the deposit named by a charge.success event.
// @Summary     Payment gateway webhook
// @Description Receives signed Paystack events. Only charge.success is acted on.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       x-paystack-signature header string true "HMAC-SHA512 of the body"
// @Success     200 {object} map[string]string "Event accepted"
// @Failure     400 {object} ErrorResponse "Malformed event"
// @Failure     401 {object} ErrorResponse "Invalid signature"
// @Router      /webhooks/paystack [post]
func (h *WebhookHandler) Paystack(c *gin.Context) {
	body, ok := c.Get(middleware.RawBodyKey)
	if !ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "missing body"))
		return
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body.([]byte), &event); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "malformed event"))
		return
	}

	log := logger.Named("webhook")
	if event.Event != payment.EventChargeSuccess {
		log.Infow("Ignoring webhook event", "event", event.Event)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if event.Data.Reference == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "event has no reference"))
		return
	}

	result, err := h.depositService.ConfirmDeposit(requestContext(c), event.Data.Reference)
	if err != nil {
		// Unknown references belong to payments this service did not start.
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			log.Warnw("Webhook for unknown reference", "reference", event.Data.Reference)
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		respondWithError(c, err)
		return
	}

	status := "processed"
	if result.AlreadyProcessed {
		status = "already_processed"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
