package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/matching"
	"github.com/soulpin/soulpin-backend/internal/repository"
)

type UseCase struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

func NewUseCase(userRepo repository.UserRepository, logger *slog.Logger) *UseCase {
	return &UseCase{userRepo: userRepo, logger: logger}
}

// RegisterRequest creates the profile shell; the psychometric record comes
// later with onboarding completion.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name" binding:"required,min=2,max=100"`
	Age      int     `json:"age" binding:"required,min=18,max=120"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
	Location *string `json:"location" binding:"omitempty,max=100"`
}

// OnboardingRequest is the full psychometric record collected by the
// assessment flow.
type OnboardingRequest struct {
	PersonalityType            string   `json:"personality_type" binding:"required"`
	EmotionalIntelligenceScore float64  `json:"emotional_intelligence_score" binding:"min=0,max=100"`
	AttachmentStyle            string   `json:"attachment_style" binding:"required"`
	CommunicationStyle         string   `json:"communication_style" binding:"required"`
	ConflictResolutionStyle    string   `json:"conflict_resolution_style"`
	LoveLanguages              []string `json:"love_languages"`
	Values                     []string `json:"values" binding:"required"`
	LifeGoals                  []string `json:"life_goals" binding:"required"`
	Interests                  []string `json:"interests" binding:"required"`
	ResponseTimePreference     string   `json:"response_time_preference"`
	SocialEnergyLevel          float64  `json:"social_energy_level" binding:"min=0,max=10"`
	OpennessScore              float64  `json:"openness_score" binding:"min=0,max=100"`
	ConscientiousnessScore     float64  `json:"conscientiousness_score" binding:"min=0,max=100"`
	ExtraversionScore          float64  `json:"extraversion_score" binding:"min=0,max=100"`
	AgreeablenessScore         float64  `json:"agreeableness_score" binding:"min=0,max=100"`
	NeuroticismScore           float64  `json:"neuroticism_score" binding:"min=0,max=100"`
}

// Register creates a user in the onboarding state.
func (uc *UseCase) Register(ctx context.Context, req *RegisterRequest) (*domain.UserProfile, error) {
	user := &domain.UserProfile{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		Age:          req.Age,
		Bio:          req.Bio,
		Location:     req.Location,
		CurrentState: domain.UserStateOnboarding,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	uc.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// CompleteOnboarding stores the psychometric record and moves the user from
// onboarding to available. It happens once; repeated calls fail.
func (uc *UseCase) CompleteOnboarding(ctx context.Context, userID string, req *OnboardingRequest) (*domain.UserProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CurrentState != domain.UserStateOnboarding {
		return nil, domain.ErrAlreadyOnboarded
	}

	user.PersonalityType = req.PersonalityType
	user.EmotionalIntelligenceScore = req.EmotionalIntelligenceScore
	user.AttachmentStyle = domain.AttachmentStyle(req.AttachmentStyle)
	user.CommunicationStyle = req.CommunicationStyle
	user.ConflictResolutionStyle = req.ConflictResolutionStyle
	user.LoveLanguages = req.LoveLanguages
	user.Values = req.Values
	user.LifeGoals = req.LifeGoals
	user.Interests = req.Interests
	user.ResponseTimePreference = req.ResponseTimePreference
	user.SocialEnergyLevel = req.SocialEnergyLevel
	user.OpennessScore = req.OpennessScore
	user.ConscientiousnessScore = req.ConscientiousnessScore
	user.ExtraversionScore = req.ExtraversionScore
	user.AgreeablenessScore = req.AgreeablenessScore
	user.NeuroticismScore = req.NeuroticismScore

	if err := matching.ValidateProfile(user); err != nil {
		return nil, err
	}
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := uc.userRepo.ActivateOnboarded(ctx, userID); err != nil {
		return nil, err
	}
	user.CurrentState = domain.UserStateAvailable

	uc.logger.Info("onboarding completed", "user_id", userID)
	return user, nil
}

// GetProfile returns a user by id.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return uc.userRepo.GetByID(ctx, userID)
}
