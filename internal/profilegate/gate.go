// Package profilegate decides whether an employee may edit their own profile right now.
//
// Before onboarding is completed the profile is always editable. Afterwards every save
// locks the profile for LockDuration; the gate reads that lock and reports the state.
package profilegate

import (
	"fmt"
	"time"
)

// LockDuration is how long a profile stays locked after a save
const LockDuration = 12 * time.Hour

// State is the result of evaluating the gate at one instant
type State struct {
	Editable    bool
	LockedUntil *time.Time
}

// Evaluate returns the gate state at now. Onboarding overrides any lock.
func Evaluate(onboardingCompleted bool, lockedUntil *time.Time, now time.Time) State {
	if !onboardingCompleted {
		return State{Editable: true}
	}
	if lockedUntil != nil && lockedUntil.After(now) {
		until := *lockedUntil
		return State{LockedUntil: &until}
	}
	return State{Editable: true}
}

// Remaining returns how long the lock still holds at now, zero when editable
func (s State) Remaining(now time.Time) time.Duration {
	if s.Editable || s.LockedUntil == nil {
		return 0
	}
	d := s.LockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FormatRemaining renders d as whole hours and whole minutes, e.g. "3h 42m".
// Leftover seconds are dropped.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// NextLock returns the lock expiry to store when a completed profile is saved at now
func NextLock(now time.Time) time.Time {
	return now.Add(LockDuration)
}
