package handler

import (
	"net/http"

	"budgetdesk/internal/service"
	"budgetdesk/pkg/pagination"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

// ListNotifications returns the caller's notification feed, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	page := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.ListNotifications(
		c.Request.Context(), ident.ID, unreadOnly, page.Page, page.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("notifications", notifications, total, page.Page, page.Limit))
}

// UnreadCount returns the caller's unread notification count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), ident.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("unread", count))
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, ident.ID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("notification marked read"))
}

// MarkAllRead marks every unread notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), ident.ID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("all notifications marked read"))
}
