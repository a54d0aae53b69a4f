package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/repository/memory"
	"github.com/soulpin/soulpin-backend/internal/usecase/progress"
)

type scheduledAction struct {
	RunAt  time.Time
	Action domain.DeferredAction
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledAction
	err   error
}

func (f *fakeScheduler) Schedule(ctx context.Context, runAt time.Time, action domain.DeferredAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, scheduledAction{RunAt: runAt, Action: action})
	return nil
}

func (f *fakeScheduler) scheduled() []scheduledAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scheduledAction, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeTextService struct {
	feedback string
	starter  string
	err      error
}

func (f *fakeTextService) GenerateMatchFeedback(ctx context.Context, user, partner *domain.UserProfile, messageCount int, duration time.Duration) (string, error) {
	return f.feedback, f.err
}

func (f *fakeTextService) GenerateConversationStarter(ctx context.Context, user, partner *domain.UserProfile) (string, error) {
	return f.starter, f.err
}

type testEnv struct {
	uc    *UseCase
	store *memory.Store
	sched *fakeScheduler
	text  *fakeTextService
	now   time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: memory.NewStore(),
		sched: &fakeScheduler{},
		text:  &fakeTextService{feedback: "generated feedback", starter: "generated starter"},
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.uc = NewUseCase(
		env.store.Users(),
		env.store.Matches(),
		env.store.Messages(),
		env.text,
		env.sched,
		nil,
		slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError})),
	)
	env.uc.now = func() time.Time { return env.now }
	return env
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

// addAvailable seeds an available user whose profile scores well against
// every other profile this helper creates.
func (e *testEnv) addAvailable(t *testing.T, id string) *domain.UserProfile {
	t.Helper()
	u := &domain.UserProfile{
		ID:                         id,
		Email:                      id + "@example.com",
		Name:                       "User " + id,
		Age:                        30,
		EmotionalIntelligenceScore: 80,
		AttachmentStyle:            domain.AttachmentSecure,
		CommunicationStyle:         "direct",
		Values:                     []string{"family", "growth"},
		LifeGoals:                  []string{"travel"},
		Interests:                  []string{"hiking"},
		ResponseTimePreference:     "flexible",
		SocialEnergyLevel:          7,
		OpennessScore:              60,
		ConscientiousnessScore:     60,
		ExtraversionScore:          60,
		AgreeablenessScore:         60,
		NeuroticismScore:           40,
		CurrentState:               domain.UserStateAvailable,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) userState(t *testing.T, id string) *domain.UserProfile {
	t.Helper()
	u, err := e.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestFindMatchCreatesJointMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")

	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "bob", result.Partner.ID)
	assert.GreaterOrEqual(t, result.Match.CompatibilityScore, 0.6)
	assert.True(t, result.Match.PinnedByUser1)
	assert.True(t, result.Match.PinnedByUser2)

	for _, id := range []string{"alice", "bob"} {
		u := env.userState(t, id)
		assert.Equal(t, domain.UserStateMatched, u.CurrentState)
		require.NotNil(t, u.MatchID)
		assert.Equal(t, result.Match.ID, *u.MatchID)
	}
}

func TestFindMatchNoCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.addAvailable(t, "alice")

	result, err := env.uc.FindMatch(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFindMatchRequiresCompletedOnboarding(t *testing.T) {
	env := newTestEnv(t)
	env.addAvailable(t, "alice")
	// fresh registration, psychometrics not collected yet
	require.NoError(t, env.store.Users().Create(context.Background(), &domain.UserProfile{
		ID:           "dave",
		Email:        "dave@example.com",
		Name:         "Dave",
		Age:          25,
		CurrentState: domain.UserStateOnboarding,
	}))

	_, err := env.uc.FindMatch(context.Background(), "dave")
	assert.ErrorIs(t, err, domain.ErrOnboardingIncomplete)
}

func TestFindMatchWhileMatched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")

	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	_, err = env.uc.FindMatch(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyMatched)
}

func TestThirdUserCannotClaimMatchedPartner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	env.addAvailable(t, "carol")

	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	result, err := env.uc.FindMatch(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, domain.UserStateAvailable, env.userState(t, "carol").CurrentState)
}

func TestSendMessageStampsFirstMessageOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	firstAt := env.now
	_, err = env.uc.SendMessage(ctx, "alice", "hey", domain.MessageTypeText)
	require.NoError(t, err)

	env.advance(3 * time.Hour)
	_, err = env.uc.SendMessage(ctx, "bob", "hi back", domain.MessageTypeText)
	require.NoError(t, err)

	m, err := env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.MessageCount)
	require.NotNil(t, m.FirstMessageAt)
	assert.True(t, m.FirstMessageAt.Equal(firstAt))
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	_, err = env.uc.SendMessage(ctx, "alice", "", domain.MessageTypeText)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSendMessageWithoutMatch(t *testing.T) {
	env := newTestEnv(t)
	env.addAvailable(t, "alice")

	_, err := env.uc.SendMessage(context.Background(), "alice", "hey", domain.MessageTypeText)
	assert.ErrorIs(t, err, domain.ErrNoActiveMatch)
}

func TestConcurrentSendsCountExactly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	const sends = 50
	var wg sync.WaitGroup
	errs := make(chan error, sends)
	for i := 0; i < sends; i++ {
		wg.Add(1)
		sender := "alice"
		if i%2 == 1 {
			sender = "bob"
		}
		go func(sender string) {
			defer wg.Done()
			_, err := env.uc.SendMessage(ctx, sender, "ping", domain.MessageTypeText)
			errs <- err
		}(sender)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	m, err := env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, sends, m.MessageCount)

	msgs, err := env.uc.Messages(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, msgs, sends)
}

func TestVideoUnlocksAtThresholdWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	for i := 0; i < progress.MessageThreshold-1; i++ {
		_, err := env.uc.SendMessage(ctx, "alice", "msg", domain.MessageTypeText)
		require.NoError(t, err)
	}
	m, err := env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.False(t, m.VideoUnlocked)

	env.advance(1 * time.Hour)
	_, err = env.uc.SendMessage(ctx, "bob", "the hundredth", domain.MessageTypeText)
	require.NoError(t, err)

	m, err = env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.MessageThreshold, m.MessageCount)
	assert.True(t, m.VideoUnlocked)
}

func TestVideoStaysLockedAfterWindowExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	for i := 0; i < progress.MessageThreshold-1; i++ {
		_, err := env.uc.SendMessage(ctx, "alice", "msg", domain.MessageTypeText)
		require.NoError(t, err)
	}

	env.advance(progress.Window + time.Hour)
	_, err = env.uc.SendMessage(ctx, "bob", "too late", domain.MessageTypeText)
	require.NoError(t, err)

	m, err := env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.MessageThreshold, m.MessageCount)
	assert.False(t, m.VideoUnlocked)
}

func TestUnpinFreezesAndSchedules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	feedback, err := env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "generated feedback", feedback)

	m, err := env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusEnded, m.Status)
	require.NotNil(t, m.UnpinnedBy)
	assert.Equal(t, "alice", *m.UnpinnedBy)
	assert.True(t, m.FeedbackSent)

	alice := env.userState(t, "alice")
	assert.Equal(t, domain.UserStateFrozen, alice.CurrentState)
	require.NotNil(t, alice.FreezeUntil)
	assert.True(t, alice.FreezeUntil.Equal(env.now.Add(FreezeDuration)))
	assert.Nil(t, alice.MatchID)

	// partner keeps the stale reference until the rematch handler runs
	bob := env.userState(t, "bob")
	assert.Equal(t, domain.UserStateMatched, bob.CurrentState)

	calls := env.sched.scheduled()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.ActionRematch, calls[0].Action.Kind)
	assert.Equal(t, "bob", calls[0].Action.TargetUserID)
	assert.True(t, calls[0].RunAt.Equal(env.now.Add(RematchDelay)))
	assert.Equal(t, domain.ActionUnfreeze, calls[1].Action.Kind)
	assert.Equal(t, "alice", calls[1].Action.TargetUserID)
	assert.True(t, calls[1].RunAt.Equal(env.now.Add(FreezeDuration)))
}

func TestUnpinUsesFallbackWhenTextServiceFails(t *testing.T) {
	env := newTestEnv(t)
	env.text.err = errors.New("model unavailable")
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	feedback, err := env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, FallbackMatchFeedback, feedback)

	// transition applied regardless of the text failure
	m, err := env.store.Matches().GetByID(ctx, result.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusEnded, m.Status)
}

func TestFrozenUserCannotMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)

	env.advance(FreezeDuration - time.Minute)
	_, err = env.uc.FindMatch(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrUserFrozen)
}

func TestFreezeLiftsLazilyOnRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)

	env.advance(FreezeDuration + time.Minute)
	// no deferred action delivered yet; the read path lifts the freeze
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, result) // bob is still stale-matched, nobody available
	assert.Equal(t, domain.UserStateAvailable, env.userState(t, "alice").CurrentState)
}

func TestHandleUnfreezeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)

	action := domain.DeferredAction{Kind: domain.ActionUnfreeze, TargetUserID: "alice"}

	// early delivery is a no-op: the freeze window is still open
	require.NoError(t, env.uc.HandleDeferredAction(ctx, action))
	assert.Equal(t, domain.UserStateFrozen, env.userState(t, "alice").CurrentState)

	env.advance(FreezeDuration)
	require.NoError(t, env.uc.HandleDeferredAction(ctx, action))
	assert.Equal(t, domain.UserStateAvailable, env.userState(t, "alice").CurrentState)

	// re-delivery after the transition is a no-op
	require.NoError(t, env.uc.HandleDeferredAction(ctx, action))
	assert.Equal(t, domain.UserStateAvailable, env.userState(t, "alice").CurrentState)
}

func TestHandleUnfreezeForMatchedUserErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	err = env.uc.HandleDeferredAction(ctx, domain.DeferredAction{Kind: domain.ActionUnfreeze, TargetUserID: "alice"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestHandleRematchResolvesStaleReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)

	env.addAvailable(t, "carol")
	env.advance(RematchDelay)

	err = env.uc.HandleDeferredAction(ctx, domain.DeferredAction{Kind: domain.ActionRematch, TargetUserID: "bob"})
	require.NoError(t, err)

	bob := env.userState(t, "bob")
	assert.Equal(t, domain.UserStateMatched, bob.CurrentState)
	m, err := env.store.Matches().GetActiveForUser(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, m.HasUser("carol"))
}

func TestHandleRematchWithNobodyAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)
	env.advance(RematchDelay)

	err = env.uc.HandleDeferredAction(ctx, domain.DeferredAction{Kind: domain.ActionRematch, TargetUserID: "bob"})
	require.NoError(t, err)

	// stale reference cleared even though nobody was available
	bob := env.userState(t, "bob")
	assert.Equal(t, domain.UserStateAvailable, bob.CurrentState)
	assert.Nil(t, bob.MatchID)
}

func TestHandleRematchForFrozenUserIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)
	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)

	// alice froze herself by unpinning; a rematch delivered to her waits
	err = env.uc.HandleDeferredAction(ctx, domain.DeferredAction{Kind: domain.ActionRematch, TargetUserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserStateFrozen, env.userState(t, "alice").CurrentState)
}

func TestCurrentMatchView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	result, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	view, err := env.uc.CurrentMatch(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, result.Match.ID, view.Match.ID)
	assert.Equal(t, "alice", view.Partner.ID)
	assert.False(t, view.Progress.Unlocked)
	assert.Equal(t, "48 hours", view.Progress.TimeRemaining)
}

func TestConversationStarterFallsBack(t *testing.T) {
	env := newTestEnv(t)
	env.text.err = errors.New("model unavailable")
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	starter, err := env.uc.ConversationStarter(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, FallbackConversationStarter, starter)
}

func TestUnpinKeepsWorkingWhenSchedulingFails(t *testing.T) {
	env := newTestEnv(t)
	env.sched.err = errors.New("redis down")
	ctx := context.Background()
	env.addAvailable(t, "alice")
	env.addAvailable(t, "bob")
	_, err := env.uc.FindMatch(ctx, "alice")
	require.NoError(t, err)

	_, err = env.uc.Unpin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStateFrozen, env.userState(t, "alice").CurrentState)
}
