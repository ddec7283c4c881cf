package service

import (
	"errors"
)

// Typed outcomes for expected conditions. Callers branch on these instead of
// parsing error strings; anything else is an unexpected storage or transport
// fault and means no state change occurred.
var (
	// ErrUsernameTaken is returned when registering a Goated username that
	// is already linked to another chat identity.
	ErrUsernameTaken = errors.New("goated username already registered")

	// ErrUserNotFound is returned by commands that require an existing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrPlayerNotFound is returned when the affiliate API has no player
	// with the given username.
	ErrPlayerNotFound = errors.New("player not found in affiliate network")

	// ErrAlreadyRequested is returned when a reward request for the same
	// (user, milestone, month) already exists, whatever its status.
	ErrAlreadyRequested = errors.New("milestone reward already requested")

	// ErrNoAchievement is returned when requesting a reward for a milestone
	// the user has not achieved this month.
	ErrNoAchievement = errors.New("milestone not achieved")

	// ErrRequestNotFound is returned when resolving a request that does not
	// exist or is no longer pending.
	ErrRequestNotFound = errors.New("pending request not found")
)
