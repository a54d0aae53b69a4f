package matching

import (
	"sort"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

// MinScore is the acceptance threshold: a best candidate strictly below it
// produces no match.
const MinScore = 0.6

// Candidate is a scored pick from the pool.
type Candidate struct {
	Profile *domain.UserProfile
	Score   float64
	Factors Factors
}

// Select scores every eligible candidate in the pool, ranks descending and
// returns the best one at or above MinScore, or nil when the pool is empty
// or the best score falls short. Ties on the top score resolve to the
// earliest candidate in input order (stable sort).
//
// Callers are expected to pass a pool of available users already excluding
// the user; the state and identity checks here are a cheap second line.
func Select(user *domain.UserProfile, pool []*domain.UserProfile) (*Candidate, error) {
	candidates := make([]Candidate, 0, len(pool))
	for _, p := range pool {
		if p.ID == user.ID || p.CurrentState != domain.UserStateAvailable {
			continue
		}
		total, factors, err := Score(user, p)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Profile: p, Score: total, Factors: factors})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	best := candidates[0]
	if best.Score < MinScore {
		return nil, nil
	}
	return &best, nil
}
