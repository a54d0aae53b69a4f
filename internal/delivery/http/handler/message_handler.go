package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/infrastructure/realtime"
	"github.com/soulpin/soulpin-backend/internal/usecase/lifecycle"
)

type MessageHandler struct {
	lifecycleUseCase *lifecycle.UseCase
	hub              *realtime.Hub
}

func NewMessageHandler(lifecycleUseCase *lifecycle.UseCase, hub *realtime.Hub) *MessageHandler {
	return &MessageHandler{lifecycleUseCase: lifecycleUseCase, hub: hub}
}

// SendMessageRequest is the body for POST /messages.
type SendMessageRequest struct {
	Content string             `json:"content" binding:"required,max=4000"`
	Type    domain.MessageType `json:"message_type" binding:"omitempty,oneof=text image voice system"`
}

// SendMessage handles POST /messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	message, err := h.lifecycleUseCase.SendMessage(c.Request.Context(), userID, req.Content, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveMatch), errors.Is(err, domain.ErrMatchNotActive):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active match"})
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListMessages handles GET /messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	messages, err := h.lifecycleUseCase.Messages(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveMatch) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active match"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Subscribe handles GET /ws: a websocket subscription to the caller's
// active match.
func (h *MessageHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	view, err := h.lifecycleUseCase.CurrentMatch(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveMatch) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active match"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to resolve match"})
		return
	}

	if err := h.hub.ServeWS(c.Writer, c.Request, view.Match.ID, userID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "websocket upgrade failed"})
	}
}
