package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/usecase/lifecycle"
)

type MatchHandler struct {
	lifecycleUseCase *lifecycle.UseCase
}

func NewMatchHandler(lifecycleUseCase *lifecycle.UseCase) *MatchHandler {
	return &MatchHandler{lifecycleUseCase: lifecycleUseCase}
}

// GetCurrentMatch handles GET /match/current
func (h *MatchHandler) GetCurrentMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	view, err := h.lifecycleUseCase.CurrentMatch(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveMatch):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active match"})
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get current match"})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// FindMatch handles POST /match/find
func (h *MatchHandler) FindMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	result, err := h.lifecycleUseCase.FindMatch(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyMatched):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already has an active match"})
		case errors.Is(err, domain.ErrUserFrozen):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user is in a freeze period"})
		case errors.Is(err, domain.ErrOnboardingIncomplete):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "onboarding is not complete"})
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to find match"})
		}
		return
	}
	if result == nil {
		// No compatible candidate right now; not an error.
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Unpin handles POST /match/unpin
func (h *MatchHandler) Unpin(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	feedback, err := h.lifecycleUseCase.Unpin(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveMatch), errors.Is(err, domain.ErrMatchNotActive):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active match"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to unpin match"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

// GetProgress handles GET /match/progress
func (h *MatchHandler) GetProgress(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get match progress"})
		return
	}

	c.JSON(http.StatusOK, view.Progress)
}

// GetConversationStarter handles GET /match/conversation-starter
func (h *MatchHandler) GetConversationStarter(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	starter, err := h.lifecycleUseCase.ConversationStarter(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveMatch) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active match"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate conversation starter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_starter": starter})
}
