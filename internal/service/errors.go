package service

import (
	"errors"
	"fmt"
	"time"

	"competency-assessment/internal/profilegate"
)

var (
	ErrForbidden          = errors.New("permission denied")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrRatingsFrozen      = errors.New("ratings of a completed assessment cannot change")
	ErrNoConsensus        = errors.New("no completed self and assessor assessment pair")
	ErrProfileLocked      = errors.New("profile is locked")
	ErrPhotosDisabled     = errors.New("photo storage is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
)

// ProfileLockedError carries the lock of a profile that cannot be edited yet
type ProfileLockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *ProfileLockedError) Error() string {
	return fmt.Sprintf("profile is locked, try again in %s", profilegate.FormatRemaining(e.Remaining))
}

func (e *ProfileLockedError) Is(target error) bool {
	return target == ErrProfileLocked
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
