package profile

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/repository/memory"
)

func newTestUseCase() (*UseCase, *memory.Store) {
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUseCase(store.Users(), logger), store
}

func validOnboarding() *OnboardingRequest {
	return &OnboardingRequest{
		PersonalityType:            "ENFP",
		EmotionalIntelligenceScore: 72,
		AttachmentStyle:            "secure",
		CommunicationStyle:         "expressive",
		ConflictResolutionStyle:    "collaborative",
		LoveLanguages:              []string{"quality_time"},
		Values:                     []string{"honesty", "growth"},
		LifeGoals:                  []string{"family"},
		Interests:                  []string{"music", "climbing"},
		ResponseTimePreference:     "fast",
		SocialEnergyLevel:          6,
		OpennessScore:              70,
		ConscientiousnessScore:     65,
		ExtraversionScore:          80,
		AgreeablenessScore:         75,
		NeuroticismScore:           30,
	}
}

func TestRegisterStartsInOnboarding(t *testing.T) {
	uc, _ := newTestUseCase()

	user, err := uc.Register(context.Background(), &RegisterRequest{
		Email: "alice@example.com",
		Name:  "Alice",
		Age:   27,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.UserStateOnboarding, user.CurrentState)
}

func TestCompleteOnboardingActivatesUser(t *testing.T) {
	uc, store := newTestUseCase()
	ctx := context.Background()

	user, err := uc.Register(ctx, &RegisterRequest{Email: "a@example.com", Name: "Alice", Age: 27})
	require.NoError(t, err)

	updated, err := uc.CompleteOnboarding(ctx, user.ID, validOnboarding())
	require.NoError(t, err)
	assert.Equal(t, domain.UserStateAvailable, updated.CurrentState)
	assert.Equal(t, domain.AttachmentSecure, updated.AttachmentStyle)

	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStateAvailable, stored.CurrentState)
	assert.Equal(t, "expressive", stored.CommunicationStyle)
}

func TestCompleteOnboardingTwice(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	user, err := uc.Register(ctx, &RegisterRequest{Email: "a@example.com", Name: "Alice", Age: 27})
	require.NoError(t, err)

	_, err = uc.CompleteOnboarding(ctx, user.ID, validOnboarding())
	require.NoError(t, err)

	_, err = uc.CompleteOnboarding(ctx, user.ID, validOnboarding())
	assert.ErrorIs(t, err, domain.ErrAlreadyOnboarded)
}

func TestCompleteOnboardingRejectsInvalidScores(t *testing.T) {
	uc, store := newTestUseCase()
	ctx := context.Background()

	user, err := uc.Register(ctx, &RegisterRequest{Email: "a@example.com", Name: "Alice", Age: 27})
	require.NoError(t, err)

	req := validOnboarding()
	req.SocialEnergyLevel = 11

	_, err = uc.CompleteOnboarding(ctx, user.ID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)

	// state untouched on validation failure
	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStateOnboarding, stored.CurrentState)
}

func TestCompleteOnboardingUnknownUser(t *testing.T) {
	uc, _ := newTestUseCase()

	_, err := uc.CompleteOnboarding(context.Background(), "missing", validOnboarding())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
