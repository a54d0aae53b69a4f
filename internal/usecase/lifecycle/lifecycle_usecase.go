// Package lifecycle owns the per-user state machine: candidate selection
// into a joint match, message accounting, unpin with its freeze window, and
// the deferred rematch/unfreeze transitions.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/matching"
	"github.com/soulpin/soulpin-backend/internal/repository"
	"github.com/soulpin/soulpin-backend/internal/usecase/progress"
)

const (
	// FreezeDuration is the mandatory cooldown after unpinning.
	FreezeDuration = 24 * time.Hour
	// RematchDelay is how long the unpinned partner waits before re-entering
	// matching.
	RematchDelay = 2 * time.Hour

	// matchCreateAttempts bounds the optimistic retry loop when a selected
	// candidate is claimed concurrently.
	matchCreateAttempts = 3
)

// Fallback strings returned when the text service fails or times out, so
// behavior stays deterministic under outage.
const (
	FallbackMatchFeedback       = "Every connection teaches us something valuable. Take time to reflect on what you learned from this experience and what you're looking for in your next match."
	FallbackConversationStarter = "Hi! I'd love to get to know you better. What's something that's been bringing you joy lately?"
)

// TextService generates feedback and conversation-starter text. Failures are
// tolerated: callers substitute the fixed fallbacks and never block a state
// transition on it.
type TextService interface {
	GenerateMatchFeedback(ctx context.Context, user, partner *domain.UserProfile, messageCount int, duration time.Duration) (string, error)
	GenerateConversationStarter(ctx context.Context, user, partner *domain.UserProfile) (string, error)
}

// Scheduler accepts a deferred action for at-least-once invocation at or
// after runAt. The handlers it eventually calls back into are idempotent.
type Scheduler interface {
	Schedule(ctx context.Context, runAt time.Time, action domain.DeferredAction) error
}

// Notifier pushes newly appended messages to connected clients of a match.
type Notifier interface {
	NotifyNewMessage(matchID string, message *domain.Message)
}

type UseCase struct {
	userRepo    repository.UserRepository
	matchRepo   repository.MatchRepository
	messageRepo repository.MessageRepository
	textService TextService
	scheduler   Scheduler
	notifier    Notifier
	logger      *slog.Logger

	now func() time.Time
}

func NewUseCase(
	userRepo repository.UserRepository,
	matchRepo repository.MatchRepository,
	messageRepo repository.MessageRepository,
	textService TextService,
	scheduler Scheduler,
	notifier Notifier,
	logger *slog.Logger,
) *UseCase {
	return &UseCase{
		userRepo:    userRepo,
		matchRepo:   matchRepo,
		messageRepo: messageRepo,
		textService: textService,
		scheduler:   scheduler,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// MatchResult is the outcome of a successful match creation.
type MatchResult struct {
	Match   *domain.Match       `json:"match"`
	Partner *domain.UserProfile `json:"partner"`
	Factors matching.Factors    `json:"compatibility_factors"`
}

// CurrentMatchView is the active match seen from one participant's side.
type CurrentMatchView struct {
	Match    *domain.Match       `json:"match"`
	Partner  *domain.UserProfile `json:"partner"`
	Progress progress.Report     `json:"progress"`
}

// FindMatch runs candidate selection for the user and, on acceptance,
// applies the joint AVAILABLE -> MATCHED transition. A nil result with a nil
// error is the expected "no match available" outcome. A due freeze is lifted
// on the way in (check-on-read).
func (uc *UseCase) FindMatch(ctx context.Context, userID string) (*MatchResult, error) {
	user, err := uc.loadUserResolvingFreeze(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch user.CurrentState {
	case domain.UserStateOnboarding:
		return nil, domain.ErrOnboardingIncomplete
	case domain.UserStateFrozen:
		return nil, domain.ErrUserFrozen
	case domain.UserStateMatched:
		if _, err := uc.matchRepo.GetActiveForUser(ctx, userID); err == nil {
			return nil, domain.ErrAlreadyMatched
		} else if !errors.Is(err, domain.ErrNoActiveMatch) {
			return nil, err
		}
		// Stale reference to an ended match reads as no active match;
		// resolve it before selecting.
		if user.MatchID != nil {
			if err := uc.userRepo.ReleaseFromMatch(ctx, userID, *user.MatchID); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
				return nil, err
			}
		}
	}

	for attempt := 0; attempt < matchCreateAttempts; attempt++ {
		pool, err := uc.userRepo.ListAvailable(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list available users: %w", err)
		}

		candidate, err := matching.Select(user, pool)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, nil
		}

		match := &domain.Match{
			ID:                 uuid.New().String(),
			User1ID:            user.ID,
			User2ID:            candidate.Profile.ID,
			CompatibilityScore: candidate.Score,
			Status:             domain.MatchStatusActive,
			PinnedByUser1:      true,
			PinnedByUser2:      true,
		}

		err = uc.matchRepo.Create(ctx, match)
		if errors.Is(err, domain.ErrUserNotAvailable) {
			// Lost the race for the candidate; re-list and select again.
			uc.logger.Info("match candidate claimed concurrently, retrying",
				"user_id", userID, "candidate_id", candidate.Profile.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create match: %w", err)
		}

		uc.logger.Info("match created",
			"match_id", match.ID, "user1_id", match.User1ID,
			"user2_id", match.User2ID, "score", match.CompatibilityScore)
		return &MatchResult{Match: match, Partner: candidate.Profile, Factors: candidate.Factors}, nil
	}

	return nil, nil
}

// CurrentMatch returns the user's active match with the partner profile and
// the progress gate, applying a due unfreeze first. ErrNoActiveMatch flows
// through when there is none.
func (uc *UseCase) CurrentMatch(ctx context.Context, userID string) (*CurrentMatchView, error) {
	if _, err := uc.loadUserResolvingFreeze(ctx, userID); err != nil {
		return nil, err
	}

	match, err := uc.matchRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	partnerID, _ := match.OtherUserID(userID)
	partner, err := uc.userRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	return &CurrentMatchView{
		Match:    match,
		Partner:  partner,
		Progress: progress.Evaluate(match, uc.now()),
	}, nil
}

// SendMessage appends a message to the user's active match, bumps the
// counter atomically (first send also stamps first_message_at) and grants
// the video unlock when the count crosses the threshold inside the 48h
// window. Late messages still count but never unlock.
func (uc *UseCase) SendMessage(ctx context.Context, userID, content string, msgType domain.MessageType) (*domain.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty message content", domain.ErrInvalidInput)
	}
	if msgType == "" {
		msgType = domain.MessageTypeText
	}

	match, err := uc.matchRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ID:        uuid.New().String(),
		MatchID:   match.ID,
		SenderID:  userID,
		Content:   content,
		Type:      msgType,
		CreatedAt: uc.now(),
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	updated, err := uc.matchRepo.IncrementMessageCount(ctx, match.ID, message.CreatedAt)
	if err != nil {
		return nil, err
	}

	if !updated.VideoUnlocked && updated.MessageCount >= progress.MessageThreshold {
		if report := progress.Evaluate(updated, uc.now()); !report.Expired {
			if err := uc.matchRepo.SetVideoUnlocked(ctx, updated.ID); err != nil {
				uc.logger.Error("set video unlocked", "match_id", updated.ID, "error", err)
			} else {
				uc.logger.Info("video call unlocked", "match_id", updated.ID, "message_count", updated.MessageCount)
			}
		}
	}

	if uc.notifier != nil {
		uc.notifier.NotifyNewMessage(match.ID, message)
	}
	return message, nil
}

// Messages lists the active match's messages in creation order.
func (uc *UseCase) Messages(ctx context.Context, userID string) ([]*domain.Message, error) {
	match, err := uc.matchRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.messageRepo.ListByMatch(ctx, match.ID)
}

// Unpin ends the user's active match, freezes the unpinner for 24 hours and
// schedules the partner's rematch at +2h plus the unpinner's unfreeze at
// +24h. Feedback generation is best-effort: a text-service failure yields
// the fixed fallback and never blocks the transition.
func (uc *UseCase) Unpin(ctx context.Context, userID string) (string, error) {
	match, err := uc.matchRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		return "", err
	}

	now := uc.now()
	if err := uc.matchRepo.End(ctx, match.ID, userID, now); err != nil {
		return "", err
	}
	if err := uc.userRepo.SetFrozen(ctx, userID, now.Add(FreezeDuration)); err != nil {
		return "", fmt.Errorf("freeze user %s: %w", userID, err)
	}

	partnerID, _ := match.OtherUserID(userID)
	uc.schedule(ctx, now.Add(RematchDelay), domain.DeferredAction{Kind: domain.ActionRematch, TargetUserID: partnerID})
	uc.schedule(ctx, now.Add(FreezeDuration), domain.DeferredAction{Kind: domain.ActionUnfreeze, TargetUserID: userID})

	uc.logger.Info("match unpinned",
		"match_id", match.ID, "unpinned_by", userID,
		"message_count", match.MessageCount, "partner_id", partnerID)

	feedback := uc.matchFeedback(ctx, match, userID, partnerID, now)
	if err := uc.matchRepo.MarkFeedbackSent(ctx, match.ID); err != nil {
		uc.logger.Error("mark feedback sent", "match_id", match.ID, "error", err)
	}
	return feedback, nil
}

// ConversationStarter asks the text service for an opener toward the active
// match's partner, falling back to the fixed string on failure.
func (uc *UseCase) ConversationStarter(ctx context.Context, userID string) (string, error) {
	match, err := uc.matchRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	partnerID, _ := match.OtherUserID(userID)
	partner, err := uc.userRepo.GetByID(ctx, partnerID)
	if err != nil {
		return "", err
	}

	if uc.textService == nil {
		return FallbackConversationStarter, nil
	}
	starter, err := uc.textService.GenerateConversationStarter(ctx, user, partner)
	if err != nil {
		uc.logger.Warn("conversation starter generation failed, using fallback", "error", err)
		return FallbackConversationStarter, nil
	}
	return starter, nil
}

// HandleDeferredAction is the scheduler callback. Both handlers are
// idempotent: re-delivery against a user already in the target state is a
// no-op, while a semantically impossible transition errors loudly since it
// indicates a scheduling bug.
func (uc *UseCase) HandleDeferredAction(ctx context.Context, action domain.DeferredAction) error {
	switch action.Kind {
	case domain.ActionUnfreeze:
		return uc.handleUnfreeze(ctx, action.TargetUserID)
	case domain.ActionRematch:
		return uc.handleRematch(ctx, action.TargetUserID)
	default:
		return fmt.Errorf("%w: unknown action kind %q", domain.ErrInvalidInput, action.Kind)
	}
}

func (uc *UseCase) handleUnfreeze(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	switch user.CurrentState {
	case domain.UserStateAvailable:
		return nil // already resolved, re-delivery is fine
	case domain.UserStateFrozen:
		if user.FrozenUntil(uc.now()) {
			return nil // delivered early; the lazy path or a later delivery lifts it
		}
		err := uc.userRepo.Unfreeze(ctx, userID)
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil // another path got there first
		}
		return err
	default:
		return fmt.Errorf("%w: unfreeze delivered for user %s in state %s",
			domain.ErrInvalidTransition, userID, user.CurrentState)
	}
}

func (uc *UseCase) handleRematch(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	switch user.CurrentState {
	case domain.UserStateOnboarding:
		return fmt.Errorf("%w: rematch delivered for onboarding user %s",
			domain.ErrInvalidTransition, userID)
	case domain.UserStateFrozen:
		return nil // they unpinned someone themselves in the meantime
	case domain.UserStateMatched:
		if _, err := uc.matchRepo.GetActiveForUser(ctx, userID); err == nil {
			return nil // already re-matched
		} else if !errors.Is(err, domain.ErrNoActiveMatch) {
			return err
		}
		if user.MatchID != nil {
			if err := uc.userRepo.ReleaseFromMatch(ctx, userID, *user.MatchID); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
				return err
			}
		}
	}

	_, err = uc.FindMatch(ctx, userID)
	if errors.Is(err, domain.ErrAlreadyMatched) || errors.Is(err, domain.ErrUserFrozen) {
		return nil
	}
	return err
}

// loadUserResolvingFreeze applies the lazy FROZEN -> AVAILABLE transition
// when the freeze window has passed. Every read-side entry point goes
// through here.
func (uc *UseCase) loadUserResolvingFreeze(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CurrentState == domain.UserStateFrozen && !user.FrozenUntil(uc.now()) {
		err := uc.userRepo.Unfreeze(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		user.CurrentState = domain.UserStateAvailable
		user.FreezeUntil = nil
	}
	return user, nil
}

func (uc *UseCase) schedule(ctx context.Context, runAt time.Time, action domain.DeferredAction) {
	if err := uc.scheduler.Schedule(ctx, runAt, action); err != nil {
		// The transition already applied; delivery is the scheduler's
		// concern and it retries on its side.
		uc.logger.Error("schedule deferred action",
			"kind", action.Kind, "target_user_id", action.TargetUserID, "error", err)
	}
}

func (uc *UseCase) matchFeedback(ctx context.Context, match *domain.Match, userID, partnerID string, now time.Time) string {
	if uc.textService == nil {
		return FallbackMatchFeedback
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		uc.logger.Warn("load user for feedback", "user_id", userID, "error", err)
		return FallbackMatchFeedback
	}
	partner, err := uc.userRepo.GetByID(ctx, partnerID)
	if err != nil {
		uc.logger.Warn("load partner for feedback", "user_id", partnerID, "error", err)
		return FallbackMatchFeedback
	}

	feedback, err := uc.textService.GenerateMatchFeedback(ctx, user, partner, match.MessageCount, now.Sub(match.CreatedAt))
	if err != nil {
		uc.logger.Warn("feedback generation failed, using fallback", "match_id", match.ID, "error", err)
		return FallbackMatchFeedback
	}
	return feedback
}
