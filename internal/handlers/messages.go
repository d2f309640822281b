package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/chat"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/util"
)

// SendMessage sends a direct message to the user in the path. The durable
// write decides the response; whether the receiver was online does not.
// POST /api/v1/message/send/:id
func (h *Handlers) SendMessage(c *gin.Context) {
	senderID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	receiverID := c.Param("id")

	var req struct {
		TextMessage string `json:"textMessage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), senderID, receiverID, req.TextMessage)
	switch {
	case errors.Is(err, chat.ErrInvalidParticipant):
		util.Fail(c, http.StatusBadRequest, "Invalid sender or receiver ID.")
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		util.Fail(c, http.StatusBadRequest, "Message text is required.")
		return
	case err != nil:
		logger.ErrorWithFields("send message failed", err)
		util.Fail(c, http.StatusInternalServerError, "An error occurred while sending the message.")
		return
	}

	util.OK(c, http.StatusCreated, gin.H{"newMessage": msg})
}

// GetConversation returns the full message history with the user in the
// path. A pair that has never talked gets an empty list, not an error.
// GET /api/v1/message/all/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	senderID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	receiverID := c.Param("id")

	messages, err := h.chat.GetConversation(c.Request.Context(), senderID, receiverID)
	switch {
	case errors.Is(err, chat.ErrInvalidParticipant):
		util.Fail(c, http.StatusBadRequest, "Sender or receiver ID missing")
		return
	case err != nil:
		logger.ErrorWithFields("get conversation failed", err)
		util.Fail(c, http.StatusInternalServerError, "An error occurred")
		return
	}

	util.OK(c, http.StatusOK, gin.H{"messages": messages})
}
