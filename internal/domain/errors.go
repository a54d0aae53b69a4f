package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrMatchNotFound   = errors.New("match not found")
	ErrMessageNotFound = errors.New("message not found")

	// ErrNoActiveMatch distinguishes "this user has no active match" from a
	// store failure; it is the expected outcome, not an error condition, for
	// most readers.
	ErrNoActiveMatch = errors.New("no active match")

	// ErrUserNotAvailable is returned when a match-creation transaction loses
	// the race for a participant: one of the two users was no longer in the
	// available state when the claim ran.
	ErrUserNotAvailable = errors.New("user is not available for matching")

	// ErrMatchNotActive guards terminal matches: ended and expired matches
	// reject all further mutation.
	ErrMatchNotActive = errors.New("match is not active")

	// ErrInvalidTransition indicates a semantically impossible state change,
	// e.g. unfreezing a user who was never frozen. It signals a scheduling
	// bug and is never swallowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	ErrAlreadyMatched       = errors.New("user already has an active match")
	ErrUserFrozen           = errors.New("user is frozen")
	ErrOnboardingIncomplete = errors.New("onboarding is not complete")
	ErrAlreadyOnboarded     = errors.New("onboarding already completed")
	ErrInvalidProfile       = errors.New("invalid profile")
	ErrInvalidInput         = errors.New("invalid input")
)
