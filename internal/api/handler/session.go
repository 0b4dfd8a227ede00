package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/backend/internal/models"
)

type connectRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Connect binds the session to the conversation named in the request and
// opens the broker subscription for it. The response carries the conversation
// id, which is also the realtime room key the client should join.
func (h *Handler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "name and type are required"})
		return
	}
	kind, ok := models.ParseKind(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "type must be QUEUE or TOPIC"})
		return
	}

	ref, err := h.Engine.Connect(c.Request.Context(), c.GetString(ctxSessionID), c.GetString(ctxUserID), req.Name, kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "connected",
		"session": gin.H{"conversation_id": ref.ID},
	})
}

type sendMessageRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// SendMessage publishes a message on the session's bound conversation.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Message == "" || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "name, message and type are required"})
		return
	}
	kind, ok := models.ParseKind(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "type must be QUEUE or TOPIC"})
		return
	}

	err := h.Engine.Send(
		c.Request.Context(),
		c.GetString(ctxSessionID),
		c.GetString(ctxUserID),
		c.GetString(ctxUsername),
		req.Name,
		req.Message,
		kind,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "message sent"})
}

// Disconnect tears down the session's broker subscription.
func (h *Handler) Disconnect(c *gin.Context) {
	if err := h.Engine.Disconnect(c.Request.Context(), c.GetString(ctxSessionID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "disconnected"})
}

type loadMessagesRequest struct {
	Name string `json:"name" form:"name"`
	// Friend is an accepted alias for Name on queue conversations.
	Friend string `json:"friend" form:"friend"`
	Type   string `json:"type" form:"type"`
}

// LoadMessages returns a conversation's history in timestamp order. The
// requester must be authorized for the conversation but need not be
// connected to it.
func (h *Handler) LoadMessages(c *gin.Context) {
	var req loadMessagesRequest
	if c.Request.Method == http.MethodGet {
		_ = c.ShouldBindQuery(&req)
	} else {
		_ = c.ShouldBindJSON(&req)
	}
	if req.Name == "" {
		req.Name = req.Friend
	}
	if req.Name == "" || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "name and type are required"})
		return
	}
	kind, ok := models.ParseKind(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "type must be QUEUE or TOPIC"})
		return
	}

	messages, err := h.Engine.LoadMessages(c.Request.Context(), c.GetString(ctxUserID), req.Name, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "messages": messages})
}
