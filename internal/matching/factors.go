package matching

// Factors are the eight independently computed sub-scores, each in [0,1].
// They are derived per scoring call and never persisted.
type Factors struct {
	EmotionalIntelligence float64 `json:"emotional_intelligence_compatibility"`
	Personality           float64 `json:"personality_compatibility"`
	Values                float64 `json:"values_alignment"`
	CommunicationStyle    float64 `json:"communication_style_match"`
	LifeGoals             float64 `json:"life_goals_alignment"`
	Interests             float64 `json:"interests_overlap"`
	Attachment            float64 `json:"attachment_compatibility"`
	Behavioral            float64 `json:"behavioral_compatibility"`
}

// Factor weights, summing to 1.0.
const (
	weightEmotionalIntelligence = 0.20
	weightPersonality           = 0.18
	weightValues                = 0.16
	weightCommunicationStyle    = 0.14
	weightLifeGoals             = 0.12
	weightInterests             = 0.10
	weightAttachment            = 0.08
	weightBehavioral            = 0.02
)

// Total combines the factors by the fixed weights.
func (f Factors) Total() float64 {
	return f.EmotionalIntelligence*weightEmotionalIntelligence +
		f.Personality*weightPersonality +
		f.Values*weightValues +
		f.CommunicationStyle*weightCommunicationStyle +
		f.LifeGoals*weightLifeGoals +
		f.Interests*weightInterests +
		f.Attachment*weightAttachment +
		f.Behavioral*weightBehavioral
}
