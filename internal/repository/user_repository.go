package repository

import (
	"context"
	"time"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	Update(ctx context.Context, user *domain.UserProfile) error
	ListAvailable(ctx context.Context, excludingID string) ([]*domain.UserProfile, error)

	// ActivateOnboarded moves a user from onboarding to available. Returns
	// domain.ErrInvalidTransition if the user is not onboarding.
	ActivateOnboarded(ctx context.Context, id string) error

	// SetFrozen moves a matched user into the freeze window, clearing the
	// match reference. Returns domain.ErrInvalidTransition if the user is
	// not matched.
	SetFrozen(ctx context.Context, id string, until time.Time) error

	// Unfreeze moves a frozen user back to available and clears
	// freeze_until. Returns domain.ErrInvalidTransition if the user is not
	// frozen.
	Unfreeze(ctx context.Context, id string) error

	// ReleaseFromMatch clears a stale match reference, moving the user back
	// to available. The update only applies while the user is matched
	// against exactly matchID, making repeated deliveries no-ops; rows
	// affected is reported through the error as with the other transitions.
	ReleaseFromMatch(ctx context.Context, id, matchID string) error
}
