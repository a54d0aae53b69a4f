package repository

import (
	"context"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

type MessageRepository interface {
	// Create appends a message; messages are immutable afterwards.
	Create(ctx context.Context, message *domain.Message) error

	// ListByMatch returns messages ordered by created_at ascending,
	// insertion order breaking ties.
	ListByMatch(ctx context.Context, matchID string) ([]*domain.Message, error)
}
