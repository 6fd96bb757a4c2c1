package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/ledger"
	"chowvest/internal/logger"
	"chowvest/internal/metrics"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"
	"chowvest/internal/ratelimit"
	"chowvest/internal/services"
)

const depositAction = "deposit"

// DepositRateLimit is the quota applied to deposit initiation per user.
type DepositRateLimit struct {
	MaxAttempts int
	Window      time.Duration
}

// WalletHandler handles wallet, history and deposit requests.
type WalletHandler struct {
	walletService  services.WalletServicer
	depositService services.DepositServicer
	limiter        ratelimit.Limiter
	depositLimit   DepositRateLimit
}

// NewWalletHandler creates a new WalletHandler. A nil limiter disables the
// deposit quota.
func NewWalletHandler(walletService services.WalletServicer, depositService services.DepositServicer, limiter ratelimit.Limiter, depositLimit DepositRateLimit) *WalletHandler {
	return &WalletHandler{
		walletService:  walletService,
		depositService: depositService,
		limiter:        limiter,
		depositLimit:   depositLimit,
	}
}

// TransactionQuery holds the history filters.
type TransactionQuery struct {
	pagination.PageRequest
	Type     string `form:"type" binding:"omitempty,transaction_type"`
	Status   string `form:"status" binding:"omitempty,transaction_status"`
	BasketID string `form:"basket_id" binding:"omitempty,uuid"`
}

// DepositRequest represents the request payload for starting a deposit
type DepositRequest struct {
	Amount        *money.Money `json:"amount" binding:"required" swaggertype:"string" example:"5000.00"`
	PaymentMethod string       `json:"payment_method" binding:"required,payment_method" example:"CARD"`
}

// VerifyPaymentRequest represents the request payload for confirming a deposit
type VerifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required,max=100"`
}

// GetWallet returns the caller's wallet, creating it on first access.
// @Summary     Get wallet
// @Description Get the authenticated user's wallet and its 20 most recent transactions
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.WalletOverview "Wallet"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Store unavailable"
// @Router      /wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetTransactions lists the wallet history.
// @Summary     List wallet transactions
// @Description Get a page of the authenticated user's ledger entries, newest first
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page"
// @Param       type      query string false "Transaction type"
// @Param       status    query string false "Transaction status"
// @Param       basket_id query string false "Basket ID"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallet/transactions [get]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var filter ledger.TransactionFilter
	if q.Type != "" {
		t := models.TransactionType(q.Type)
		filter.Type = &t
	}
	if q.Status != "" {
		s := models.TransactionStatus(q.Status)
		filter.Status = &s
	}
	if q.BasketID != "" {
		filter.BasketID = &q.BasketID
	}

	resp, err := h.walletService.GetWalletTransactions(c.Request.Context(), userID, q.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTransactionByID returns one ledger entry.
// @Summary     Get transaction
// @Description Get a ledger entry owned by the authenticated user
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /wallet/transactions/{id} [get]
func (h *WalletHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.walletService.GetTransactionByID(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// InitiateDeposit starts a deposit and returns the checkout URL.
// @Summary     Start a deposit
// @Description Create a pending deposit and open a checkout session with the payment gateway
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DepositRequest true "Deposit details"
// @Success     201 {object} services.DepositInitiation "Checkout created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /wallet/deposit [post]
func (h *WalletHandler) InitiateDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if h.limited(c, userID) {
		respondWithError(c, apperrors.ErrRateLimited)
		return
	}

	result, err := h.depositService.InitiateDeposit(requestContext(c), services.InitiateDepositInput{
		UserID: userID,
		Email:  getEmail(c),
		Amount: *req.Amount,
		Method: models.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// limited consumes one deposit attempt. A limiter that cannot be reached lets
// the request through.
func (h *WalletHandler) limited(c *gin.Context, userID string) bool {
	if h.limiter == nil {
		return false
	}
	exceeded, err := h.limiter.CheckAndConsume(c.Request.Context(), ratelimit.Rule{
		Identifier:  userID,
		Action:      depositAction,
		MaxAttempts: h.depositLimit.MaxAttempts,
		Window:      h.depositLimit.Window,
	})
	if err != nil {
		logger.Get().Warnw("rate limiter unavailable, allowing deposit", "user_id", userID, "error", err)
		return false
	}
	if exceeded {
		metrics.RateLimited.WithLabelValues(depositAction).Inc()
	}
	return exceeded
}

// VerifyPayment confirms a deposit the caller started.
// @Summary     Verify a deposit
// @Description Verify a deposit with the payment gateway and credit the wallet. Safe to repeat.
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body VerifyPaymentRequest true "Payment reference"
// @Success     200 {object} services.DepositConfirmation "Deposit confirmed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     402 {object} ErrorResponse "Payment not confirmed"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /wallet/verify-payment [post]
func (h *WalletHandler) VerifyPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	reference := strings.TrimSpace(req.Reference)

	if _, err := h.walletService.GetTransactionByReference(c.Request.Context(), userID, reference); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.depositService.ConfirmDeposit(requestContext(c), reference)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
