package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chowvest/internal/models"
	"chowvest/internal/services"
)

// PaymentMethodHandler handles saved card and bank account requests.
type PaymentMethodHandler struct {
	paymentMethodService services.PaymentMethodServicer
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(paymentMethodService services.PaymentMethodServicer) *PaymentMethodHandler {
	return &PaymentMethodHandler{paymentMethodService: paymentMethodService}
}

// AddPaymentMethodRequest represents the request payload for saving a method
type AddPaymentMethodRequest struct {
	Type              string `json:"type" binding:"required,payment_method"`
	Provider          string `json:"provider" binding:"required,max=30"`
	AuthorizationCode string `json:"authorization_code" binding:"omitempty,max=100"`
	Signature         string `json:"signature" binding:"omitempty,max=100"`
	CardBrand         string `json:"card_brand" binding:"omitempty,max=30"`
	CardLast4         string `json:"card_last4" binding:"omitempty,numeric,len=4"`
	CardExpMonth      string `json:"card_exp_month" binding:"omitempty,numeric,len=2"`
	CardExpYear       string `json:"card_exp_year" binding:"omitempty,numeric,len=4"`
	CardBin           string `json:"card_bin" binding:"omitempty,numeric,len=6"`
	CardBank          string `json:"card_bank" binding:"omitempty,max=100"`
	CardCountry       string `json:"card_country" binding:"omitempty,max=50"`
	BankName          string `json:"bank_name" binding:"omitempty,max=100"`
	AccountNumber     string `json:"account_number" binding:"omitempty,numeric,max=20"`
	IsPrimary         bool   `json:"is_primary"`
}

// GetPaymentMethods lists the caller's active saved methods.
// @Summary     List saved payment methods
// @Tags        payment-methods
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.SavedPaymentMethod "Saved methods"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /payment-methods [get]
func (h *PaymentMethodHandler) GetPaymentMethods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	methods, err := h.paymentMethodService.ListPaymentMethods(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// AddPaymentMethod saves a card or bank account.
// @Summary     Save a payment method
// @Description Store a card or bank account; is_primary replaces the current primary
// @Tags        payment-methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddPaymentMethodRequest true "Method details"
// @Success     201 {object} map[string]models.SavedPaymentMethod "Saved method"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /payment-methods [post]
func (h *PaymentMethodHandler) AddPaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	method, err := h.paymentMethodService.AddPaymentMethod(c.Request.Context(), userID, services.AddPaymentMethodInput{
		Type:              models.PaymentMethod(req.Type),
		Provider:          req.Provider,
		AuthorizationCode: req.AuthorizationCode,
		Signature:         req.Signature,
		CardBrand:         req.CardBrand,
		CardLast4:         req.CardLast4,
		CardExpMonth:      req.CardExpMonth,
		CardExpYear:       req.CardExpYear,
		CardBin:           req.CardBin,
		CardBank:          req.CardBank,
		CardCountry:       req.CardCountry,
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		IsPrimary:         req.IsPrimary,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment_method": method})
}

// RemovePaymentMethod deactivates a saved method.
// @Summary     Remove a saved payment method
// @Tags        payment-methods
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payment method ID"
// @Success     200 {object} map[string]interface{} "Removed"
// @Failure     400 {object} ErrorResponse "Invalid id"
// @Failure     404 {object} ErrorResponse "Payment method not found"
// @Router      /payment-methods/{id} [delete]
func (h *PaymentMethodHandler) RemovePaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	methodID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.paymentMethodService.RemovePaymentMethod(c.Request.Context(), userID, methodID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment method removed"})
}
