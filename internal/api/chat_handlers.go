package api

import (
	"net/http"

	"quota-service/internal/models"

	"github.com/gin-gonic/gin"
)

// chatHistory returns a quota's chat history; non-participants get 403
// without ever seeing content.
func (h *Handler) chatHistory(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), c.Param("id"), currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// sendMessage appends a chat message. The response carries the
// server-assigned id so an optimistic client entry can be reconciled.
func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), c.Param("id"), currentProfile(c).ID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// listNotifications returns the caller's notifications plus unread count
func (h *Handler) listNotifications(c *gin.Context) {
	page, err := h.chatService.Notifications(c.Request.Context(), currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// markNotificationRead flips is_read on one of the caller's notifications
func (h *Handler) markNotificationRead(c *gin.Context) {
	if err := h.chatService.MarkRead(c.Request.Context(), c.Param("id"), currentProfile(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
