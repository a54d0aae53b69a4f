package domain

// ActionKind identifies a deferred lifecycle transition delivered by the
// external scheduler. Handlers must be idempotent: the scheduler only
// guarantees at-least-once delivery at or after the deadline.
type ActionKind string

const (
	// ActionRematch re-enters the partner of an unpinned match into
	// matching, 2 hours after the unpin.
	ActionRematch ActionKind = "rematch"
	// ActionUnfreeze lifts a freeze once freeze_until has passed.
	ActionUnfreeze ActionKind = "unfreeze"
)

type DeferredAction struct {
	Kind         ActionKind `json:"kind"`
	TargetUserID string     `json:"target_user_id"`
}
