package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chowvest/internal/ledger"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"
	"chowvest/internal/services"
)

// BasketHandler handles savings basket requests.
type BasketHandler struct {
	basketService   services.BasketServicer
	transferService services.TransferServicer
}

// NewBasketHandler creates a new BasketHandler.
func NewBasketHandler(basketService services.BasketServicer, transferService services.TransferServicer) *BasketHandler {
	return &BasketHandler{basketService: basketService, transferService: transferService}
}

// BasketQuery holds the list filters.
type BasketQuery struct {
	pagination.PageRequest
	Status           string `form:"status" binding:"omitempty,basket_status"`
	IncludeCancelled bool   `form:"include_cancelled"`
}

// CreateBasketRequest represents the request payload for creating a basket
type CreateBasketRequest struct {
	Name              string       `json:"name" binding:"required,min=1,max=100"`
	Description       string       `json:"description" binding:"max=500"`
	Category          string       `json:"category" binding:"max=50"`
	GoalAmount        *money.Money `json:"goal_amount" binding:"required" swaggertype:"string" example:"50000.00"`
	TargetDate        *string      `json:"target_date" example:"2026-12-24"`
	AutoSaveEnabled   bool         `json:"auto_save_enabled"`
	AutoSaveAmount    *money.Money `json:"auto_save_amount" swaggertype:"string" example:"2500.00"`
	AutoSaveFrequency *string      `json:"auto_save_frequency" binding:"omitempty,autosave_frequency" example:"WEEKLY"`
}

// AddFundsRequest represents the request payload for funding a basket
type AddFundsRequest struct {
	Amount *money.Money `json:"amount" binding:"required" swaggertype:"string" example:"2000.00"`
}

// UpdateBasketStatusRequest represents the request payload for pausing or resuming a basket
type UpdateBasketStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE PAUSED" example:"PAUSED"`
}

// GetBaskets lists the caller's baskets.
// @Summary     List baskets
// @Description Get a page of the authenticated user's baskets with their wallet balance
// @Tags        baskets
// @Produce     json
// @Security    BearerAuth
// @Param       page              query int    false "Page number"
// @Param       page_size         query int    false "Items per page"
// @Param       status            query string false "Basket status"
// @Param       include_cancelled query bool   false "Include cancelled baskets"
// @Success     200 {object} services.BasketList "Baskets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /baskets [get]
func (h *BasketHandler) GetBaskets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q BasketQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := ledger.BasketFilter{IncludeCancelled: q.IncludeCancelled}
	if q.Status != "" {
		s := models.BasketStatus(q.Status)
		filter.Status = &s
	}

	resp, err := h.basketService.GetUserBaskets(c.Request.Context(), userID, q.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateBasket handles the creation of a new savings basket
// @Summary     Create a basket
// @Description Create a new savings goal for the authenticated user
// @Tags        baskets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBasketRequest true "Basket details"
// @Success     201 {object} models.Basket "Basket created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /baskets [post]
func (h *BasketHandler) CreateBasket(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.CreateBasketInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		GoalAmount:      *req.GoalAmount,
		AutoSaveEnabled: req.AutoSaveEnabled,
		AutoSaveAmount:  req.AutoSaveAmount,
	}
	if req.TargetDate != nil && *req.TargetDate != "" {
		target, err := parseDate(*req.TargetDate, "target_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		in.TargetDate = &target
	}
	if req.AutoSaveFrequency != nil {
		f := models.AutoSaveFrequency(*req.AutoSaveFrequency)
		in.AutoSaveFrequency = &f
	}

	basket, err := h.basketService.CreateBasket(requestContext(c), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"basket": basket})
}

// GetBasketByID returns one basket.
// @Summary     Get basket
// @Description Get a basket owned by the authenticated user
// @Tags        baskets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Basket ID"
// @Success     200 {object} models.Basket "Basket"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /baskets/{id} [get]
func (h *BasketHandler) GetBasketByID(c *gin.Context) {
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

	basket, err := h.basketService.GetBasketByID(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"basket": basket, "progress": basket.Progress().StringFixed(2)})
}

// AddFunds moves money from the wallet into the basket.
// @Summary     Fund a basket
// @Description Transfer money from the wallet into an active basket
// @Tags        baskets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Basket ID"
// @Param       request body AddFundsRequest true "Amount"
// @Success     200 {object} services.TransferResult "Transfer completed"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient funds"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Basket not active"
// @Router      /baskets/{id}/add-funds [post]
func (h *BasketHandler) AddFunds(c *gin.Context) {
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

	var req AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.transferService.TransferToBasket(requestContext(c), userID, id, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateStatus pauses or resumes a basket.
// @Summary     Pause or resume a basket
// @Tags        baskets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Basket ID"
// @Param       request body UpdateBasketStatusRequest true "Target status"
// @Success     200 {object} models.Basket "Basket updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Invalid state"
// @Router      /baskets/{id}/status [patch]
func (h *BasketHandler) UpdateStatus(c *gin.Context) {
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

	var req UpdateBasketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	basket, err := h.basketService.SetBasketStatus(requestContext(c), userID, id, models.BasketStatus(req.Status))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"basket": basket})
}

// RequestDelivery asks for a completed basket to be delivered.
// @Summary     Request delivery
// @Tags        baskets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Basket ID"
// @Success     200 {object} models.Basket "Delivery requested"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Basket not completed or already delivered"
// @Router      /baskets/{id}/request-delivery [post]
func (h *BasketHandler) RequestDelivery(c *gin.Context) {
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

	basket, err := h.basketService.RequestDelivery(requestContext(c), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"basket": basket})
}

// CancelBasket handles basket deletion
// @Summary     Cancel a basket
// @Description Cancel an empty basket. Its transactions stay in the history.
// @Tags        baskets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Basket ID"
// @Success     200 {object} models.Basket "Basket cancelled"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Basket holds funds"
// @Router      /baskets/{id} [delete]
func (h *BasketHandler) CancelBasket(c *gin.Context) {
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

	basket, err := h.basketService.CancelBasket(requestContext(c), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"basket": basket})
}
