package matching

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

var validate = validator.New()

// attachmentMatrix maps attachment-style pairs to a compatibility value.
// Unmapped styles fall back to 0.5.
var attachmentMatrix = map[domain.AttachmentStyle]map[domain.AttachmentStyle]float64{
	domain.AttachmentSecure:       {domain.AttachmentSecure: 1.0, domain.AttachmentAnxious: 0.7, domain.AttachmentAvoidant: 0.6, domain.AttachmentDisorganized: 0.4},
	domain.AttachmentAnxious:      {domain.AttachmentSecure: 0.7, domain.AttachmentAnxious: 0.3, domain.AttachmentAvoidant: 0.2, domain.AttachmentDisorganized: 0.3},
	domain.AttachmentAvoidant:     {domain.AttachmentSecure: 0.6, domain.AttachmentAnxious: 0.2, domain.AttachmentAvoidant: 0.4, domain.AttachmentDisorganized: 0.3},
	domain.AttachmentDisorganized: {domain.AttachmentSecure: 0.4, domain.AttachmentAnxious: 0.3, domain.AttachmentAvoidant: 0.3, domain.AttachmentDisorganized: 0.2},
}

// styleCompatibility lists, per communication style, the partner styles
// considered a full match. The lookup is keyed by the first profile's style
// only: "self" is the user on whose behalf scoring runs. Kept asymmetric to
// match observed product behavior.
var styleCompatibility = map[string][]string{
	"direct":     {"direct", "assertive"},
	"diplomatic": {"diplomatic", "empathetic"},
	"analytical": {"analytical", "logical"},
	"expressive": {"expressive", "emotional"},
	"supportive": {"supportive", "diplomatic"},
}

// ValidateProfile checks the numeric trait fields a score depends on.
// Malformed profiles fail fast rather than silently corrupting scores.
func ValidateProfile(u *domain.UserProfile) error {
	if u == nil {
		return fmt.Errorf("%w: nil profile", domain.ErrInvalidProfile)
	}
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}
	return nil
}

// Score computes the weighted compatibility of two profiles in [0,1] along
// with the per-factor breakdown. It is pure: no I/O, no side effects.
func Score(a, b *domain.UserProfile) (float64, Factors, error) {
	if err := ValidateProfile(a); err != nil {
		return 0, Factors{}, err
	}
	if err := ValidateProfile(b); err != nil {
		return 0, Factors{}, err
	}

	factors := Factors{
		EmotionalIntelligence: emotionalIntelligenceCompatibility(a, b),
		Personality:           personalityCompatibility(a, b),
		Values:                jaccard(a.Values, b.Values),
		CommunicationStyle:    communicationStyleMatch(a, b),
		LifeGoals:             jaccard(a.LifeGoals, b.LifeGoals),
		Interests:             jaccard(a.Interests, b.Interests),
		Attachment:            attachmentCompatibility(a, b),
		Behavioral:            behavioralCompatibility(a, b),
	}
	return factors.Total(), factors, nil
}

// Higher scores are better, and scores close together get a proximity bonus.
func emotionalIntelligenceCompatibility(a, b *domain.UserProfile) float64 {
	diff := math.Abs(a.EmotionalIntelligenceScore - b.EmotionalIntelligenceScore)
	avg := (a.EmotionalIntelligenceScore + b.EmotionalIntelligenceScore) / 2
	proximityBonus := 1 - diff/100
	return (avg / 100) * proximityBonus
}

// Big Five trait distance; smaller average difference scores higher.
func personalityCompatibility(a, b *domain.UserProfile) float64 {
	avgDiff := (math.Abs(a.OpennessScore-b.OpennessScore) +
		math.Abs(a.ConscientiousnessScore-b.ConscientiousnessScore) +
		math.Abs(a.ExtraversionScore-b.ExtraversionScore) +
		math.Abs(a.AgreeablenessScore-b.AgreeablenessScore) +
		math.Abs(a.NeuroticismScore-b.NeuroticismScore)) / 5
	return 1 - avgDiff/100
}

func communicationStyleMatch(a, b *domain.UserProfile) float64 {
	for _, style := range styleCompatibility[a.CommunicationStyle] {
		if style == b.CommunicationStyle {
			return 1.0
		}
	}
	return 0.3
}

func attachmentCompatibility(a, b *domain.UserProfile) float64 {
	if row, ok := attachmentMatrix[a.AttachmentStyle]; ok {
		if v, ok := row[b.AttachmentStyle]; ok {
			return v
		}
	}
	return 0.5
}

func behavioralCompatibility(a, b *domain.UserProfile) float64 {
	energy := 1 - math.Abs(a.SocialEnergyLevel-b.SocialEnergyLevel)/10
	response := 0.5
	if a.ResponseTimePreference == b.ResponseTimePreference {
		response = 1.0
	}
	return (energy + response) / 2
}

// jaccard is |intersection| / |union| over two tag sets. Two empty sets
// yield 0, not NaN.
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
