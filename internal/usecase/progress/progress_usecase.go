// Package progress derives the engagement gate for a match: whether video
// calling is unlocked and how much of the fast-unlock window remains.
package progress

import (
	"fmt"
	"time"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

const (
	// MessageThreshold is the message count that unlocks video calling.
	MessageThreshold = 100
	// Window is the fast-unlock budget, counted from the first message.
	Window = 48 * time.Hour
)

// Report is derived state only; nothing here is persisted.
type Report struct {
	MessageCount       int     `json:"message_count"`
	Unlocked           bool    `json:"unlocked"`
	Expired            bool    `json:"expired"`
	TimeRemaining      string  `json:"time_remaining"`
	ProgressPercentage float64 `json:"progress_percentage"`

	Remaining time.Duration `json:"-"`
}

// Evaluate computes the gate for a match at time now. The window only starts
// counting down at the first message; before that the full budget is open.
// Messages sent after expiry still count, but unlock is only granted while
// the window is open (the persisted flag wins if it was set in time).
func Evaluate(m *domain.Match, now time.Time) Report {
	r := Report{
		MessageCount:       m.MessageCount,
		TimeRemaining:      "48 hours",
		Remaining:          Window,
		ProgressPercentage: percentage(m.MessageCount),
	}

	if m.FirstMessageAt != nil {
		deadline := m.FirstMessageAt.Add(Window)
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			r.Expired = true
			r.Remaining = 0
			r.TimeRemaining = "Expired"
		} else {
			r.Remaining = remaining
			r.TimeRemaining = formatRemaining(remaining)
		}
	}

	r.Unlocked = m.VideoUnlocked || (m.MessageCount >= MessageThreshold && !r.Expired)
	return r
}

func percentage(count int) float64 {
	p := float64(count) / MessageThreshold * 100
	if p > 100 {
		return 100
	}
	return p
}

func formatRemaining(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
