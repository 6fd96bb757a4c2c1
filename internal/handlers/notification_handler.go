package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chowvest/internal/pagination"
	"chowvest/internal/services"
)

// NotificationHandler handles in-app notification requests.
type NotificationHandler struct {
	notificationService services.NotificationServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// NotificationQuery holds the list filters.
type NotificationQuery struct {
	pagination.PageRequest
	UnreadOnly bool `form:"unread_only"`
}

// MarkReadRequest represents the request payload for marking notifications read
type MarkReadRequest struct {
	NotificationIDs []string `json:"notification_ids" binding:"omitempty,max=100,dive,uuid"`
	All             bool     `json:"all"`
}

// GetNotifications lists the caller's notifications.
// @Summary     List notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int  false "Page number"
// @Param       page_size   query int  false "Items per page"
// @Param       unread_only query bool false "Only unread notifications"
// @Success     200 {object} services.NotificationList "Notifications"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q NotificationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	resp, err := h.notificationService.GetUserNotifications(c.Request.Context(), userID, q.PageRequest, q.UnreadOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MarkAsRead marks notifications read.
// @Summary     Mark notifications read
// @Description Mark the given notifications, or all of them, as read
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MarkReadRequest true "Notifications to mark"
// @Success     200 {object} map[string]int64 "Number of notifications updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/read [patch]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	updated, err := h.notificationService.MarkAsRead(c.Request.Context(), userID, req.NotificationIDs, req.All)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
