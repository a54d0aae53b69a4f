package domain

import "time"

// MatchStatus is terminal once it leaves "active": ended and expired
// matches are never mutated again.
type MatchStatus string

const (
	MatchStatusActive  MatchStatus = "active"
	MatchStatusEnded   MatchStatus = "ended"
	MatchStatusExpired MatchStatus = "expired"
)

type Match struct {
	ID                 string      `json:"id" db:"id"`
	User1ID            string      `json:"user1_id" db:"user1_id"`
	User2ID            string      `json:"user2_id" db:"user2_id"`
	CompatibilityScore float64     `json:"compatibility_score" db:"compatibility_score"`
	Status             MatchStatus `json:"status" db:"status"`
	PinnedByUser1      bool        `json:"pinned_by_user1" db:"pinned_by_user1"`
	PinnedByUser2      bool        `json:"pinned_by_user2" db:"pinned_by_user2"`
	UnpinnedBy         *string     `json:"unpinned_by" db:"unpinned_by"`
	UnpinnedAt         *time.Time  `json:"unpinned_at" db:"unpinned_at"`
	MessageCount       int         `json:"message_count" db:"message_count"`
	FirstMessageAt     *time.Time  `json:"first_message_at" db:"first_message_at"`
	VideoUnlocked      bool        `json:"video_unlocked" db:"video_unlocked"`
	FeedbackSent       bool        `json:"feedback_sent" db:"feedback_sent"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
}

func (m *Match) IsActive() bool {
	return m.Status == MatchStatusActive
}

func (m *Match) HasUser(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) OtherUserID(userID string) (string, bool) {
	if m.User1ID == userID {
		return m.User2ID, true
	}
	if m.User2ID == userID {
		return m.User1ID, true
	}
	return "", false
}
