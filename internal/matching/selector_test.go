package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

// incompatibleProfile scores far below MinScore against baseProfile.
func incompatibleProfile(id string) *domain.UserProfile {
	p := baseProfile(id)
	p.EmotionalIntelligenceScore = 0
	p.OpennessScore = 100
	p.ConscientiousnessScore = 100
	p.ExtraversionScore = 100
	p.AgreeablenessScore = 100
	p.NeuroticismScore = 100
	p.Values = []string{"solitude"}
	p.LifeGoals = []string{"retire-early"}
	p.Interests = []string{"chess"}
	p.CommunicationStyle = "diplomatic"
	p.AttachmentStyle = domain.AttachmentAvoidant
	p.ResponseTimePreference = "slow"
	p.SocialEnergyLevel = 0
	return p
}

func TestSelectEmptyPool(t *testing.T) {
	got, err := Select(baseProfile("a"), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectBelowThreshold(t *testing.T) {
	user := baseProfile("a")
	pool := []*domain.UserProfile{incompatibleProfile("b"), incompatibleProfile("c")}

	got, err := Select(user, pool)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectPicksHighestScore(t *testing.T) {
	user := baseProfile("a")

	twin := baseProfile("twin")
	weaker := baseProfile("weaker")
	weaker.Values = []string{"family", "adventure"}
	weaker.Interests = []string{"hiking"}

	got, err := Select(user, []*domain.UserProfile{weaker, twin, incompatibleProfile("d")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "twin", got.Profile.ID)
	assert.GreaterOrEqual(t, got.Score, MinScore)
	assert.InDelta(t, got.Factors.Total(), got.Score, 1e-12)
}

func TestSelectTieKeepsInputOrder(t *testing.T) {
	user := baseProfile("a")
	first := baseProfile("first")
	second := baseProfile("second")

	got, err := Select(user, []*domain.UserProfile{first, second})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Profile.ID)
}

func TestSelectSkipsSelfAndUnavailable(t *testing.T) {
	user := baseProfile("a")

	self := baseProfile("a")
	matched := baseProfile("b")
	matched.CurrentState = domain.UserStateMatched
	frozen := baseProfile("c")
	frozen.CurrentState = domain.UserStateFrozen

	got, err := Select(user, []*domain.UserProfile{self, matched, frozen})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectPropagatesScoringError(t *testing.T) {
	user := baseProfile("a")
	bad := baseProfile("b")
	bad.SocialEnergyLevel = 42

	_, err := Select(user, []*domain.UserProfile{bad})
	require.ErrorIs(t, err, domain.ErrInvalidProfile)
}
