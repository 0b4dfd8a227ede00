package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/backend/internal/storage"
)

type inboundRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ReceiveMessage is the inbound callback the broker proxy pushes to. The path
// segment is the conversation id the proxy was given at connect time, so no
// name resolution happens here, and the opaque id is the access boundary.
// The call is acknowledged whether or not anyone is subscribed.
func (h *Handler) ReceiveMessage(c *gin.Context) {
	var req inboundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username and message are required"})
		return
	}

	room := c.Param("conversation_id")
	username := storage.NormalizeName(req.Username)
	log.Printf("message received from %s for room %s", username, room)

	if err := h.Hub.Emit(c.Request.Context(), room, username, req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error emitting message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "message received and emitted"})
}
