package repository

import (
	"context"
	"time"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

type MatchRepository interface {
	// Create persists the match and claims both participants in one
	// transaction: each user row moves available -> matched with the new
	// match reference, or the whole operation rolls back with
	// domain.ErrUserNotAvailable. Two concurrent attempts can never both
	// claim the same candidate.
	Create(ctx context.Context, match *domain.Match) error

	GetByID(ctx context.Context, id string) (*domain.Match, error)

	// GetActiveForUser returns the user's active match or
	// domain.ErrNoActiveMatch. Ended and expired matches are invisible
	// here: a stale match reference on the user row reads as no match.
	GetActiveForUser(ctx context.Context, userID string) (*domain.Match, error)

	// IncrementMessageCount atomically bumps message_count and sets
	// first_message_at if unset, returning the updated row. Concurrent
	// sends must all be reflected. Fails with domain.ErrMatchNotActive on
	// terminal matches.
	IncrementMessageCount(ctx context.Context, matchID string, at time.Time) (*domain.Match, error)

	// SetVideoUnlocked flips the unlock flag while the match is active;
	// a no-op if already unlocked.
	SetVideoUnlocked(ctx context.Context, matchID string) error

	// End moves an active match to ended, recording who unpinned and when.
	// Fails with domain.ErrMatchNotActive if the match already left active.
	End(ctx context.Context, matchID, unpinnedBy string, at time.Time) error

	MarkFeedbackSent(ctx context.Context, matchID string) error
}
