package domain

import "time"

// UserState is the lifecycle state of a user. A user holds at most one
// active match; current_state is "matched" iff match_id is set, and
// freeze_until is set iff current_state is "frozen".
type UserState string

const (
	UserStateOnboarding UserState = "onboarding"
	UserStateAvailable  UserState = "available"
	UserStateMatched    UserState = "matched"
	UserStateFrozen     UserState = "frozen"
)

type AttachmentStyle string

const (
	AttachmentSecure       AttachmentStyle = "secure"
	AttachmentAnxious      AttachmentStyle = "anxious"
	AttachmentAvoidant     AttachmentStyle = "avoidant"
	AttachmentDisorganized AttachmentStyle = "disorganized"
)

// UserProfile is the full psychometric record collected at onboarding.
// Trait scores are 0-100, social energy 0-10; the matching package
// validates the numeric fields before scoring.
type UserProfile struct {
	ID       string  `json:"id" db:"id"`
	Email    string  `json:"email" db:"email"`
	Name     string  `json:"name" db:"name"`
	Age      int     `json:"age" db:"age"`
	Bio      *string `json:"bio" db:"bio"`
	Location *string `json:"location" db:"location"`

	PersonalityType            string          `json:"personality_type" db:"personality_type"`
	EmotionalIntelligenceScore float64         `json:"emotional_intelligence_score" db:"emotional_intelligence_score" validate:"min=0,max=100"`
	AttachmentStyle            AttachmentStyle `json:"attachment_style" db:"attachment_style"`
	CommunicationStyle         string          `json:"communication_style" db:"communication_style"`
	ConflictResolutionStyle    string          `json:"conflict_resolution_style" db:"conflict_resolution_style"`
	LoveLanguages              []string        `json:"love_languages" db:"love_languages"`
	Values                     []string        `json:"values" db:"values"`
	LifeGoals                  []string        `json:"life_goals" db:"life_goals"`
	Interests                  []string        `json:"interests" db:"interests"`

	ResponseTimePreference string  `json:"response_time_preference" db:"response_time_preference"`
	SocialEnergyLevel      float64 `json:"social_energy_level" db:"social_energy_level" validate:"min=0,max=10"`
	OpennessScore          float64 `json:"openness_score" db:"openness_score" validate:"min=0,max=100"`
	ConscientiousnessScore float64 `json:"conscientiousness_score" db:"conscientiousness_score" validate:"min=0,max=100"`
	ExtraversionScore      float64 `json:"extraversion_score" db:"extraversion_score" validate:"min=0,max=100"`
	AgreeablenessScore     float64 `json:"agreeableness_score" db:"agreeableness_score" validate:"min=0,max=100"`
	NeuroticismScore       float64 `json:"neuroticism_score" db:"neuroticism_score" validate:"min=0,max=100"`

	CurrentState UserState  `json:"current_state" db:"current_state"`
	LastActiveAt time.Time  `json:"last_active_at" db:"last_active_at"`
	FreezeUntil  *time.Time `json:"freeze_until" db:"freeze_until"`
	MatchID      *string    `json:"match_id" db:"match_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FrozenUntil reports whether the user is still inside a freeze window at t.
func (u *UserProfile) FrozenUntil(t time.Time) bool {
	return u.CurrentState == UserStateFrozen && u.FreezeUntil != nil && t.Before(*u.FreezeUntil)
}
