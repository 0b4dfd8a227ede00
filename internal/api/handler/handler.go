package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/engine"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

// SessionEngine is the part of the binder the handlers depend on.
type SessionEngine interface {
	Connect(ctx context.Context, sessionID, requesterID, targetName string, kind models.ConversationKind) (models.ConversationRef, error)
	Send(ctx context.Context, sessionID, requesterID, senderHandle, targetName, body string, kind models.ConversationKind) error
	Disconnect(ctx context.Context, sessionID string) error
	LoadMessages(ctx context.Context, requesterID, targetName string, kind models.ConversationKind) ([]models.Message, error)
	DropSession(ctx context.Context, sessionID string)
}

// Handler wires the HTTP surface to the engine, the store and the hub.
type Handler struct {
	Store  *storage.Service
	Engine SessionEngine
	Hub    *chathub.Manager

	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewHandler(store *storage.Service, eng SessionEngine, hub *chathub.Manager, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{
		Store:     store,
		Engine:    eng,
		Hub:       hub,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// respondError maps the engine taxonomy onto the status envelope. Upstream
// failures keep the proxy's status code when it is an error code, the way the
// legacy API relayed them.
func respondError(c *gin.Context, err error) {
	var upstream *engine.UpstreamError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, engine.ErrForbidden), errors.Is(err, engine.ErrStaleBinding):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, engine.ErrNotConnected), errors.Is(err, engine.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"status": "error", "message": upstream.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
	}
}
