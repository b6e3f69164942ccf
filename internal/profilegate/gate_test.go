package profilegate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		onboarded   bool
		lockedUntil *time.Time
		editable    bool
	}{
		{name: "onboarding overrides lock", onboarded: false, lockedUntil: at(10 * time.Hour), editable: true},
		{name: "onboarding without lock", onboarded: false, lockedUntil: nil, editable: true},
		{name: "no lock", onboarded: true, lockedUntil: nil, editable: true},
		{name: "active lock", onboarded: true, lockedUntil: at(time.Hour), editable: false},
		{name: "elapsed lock", onboarded: true, lockedUntil: at(-time.Second), editable: true},
		{name: "lock expiring now", onboarded: true, lockedUntil: at(0), editable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := Evaluate(tt.onboarded, tt.lockedUntil, now)
			assert.Equal(t, tt.editable, state.Editable)
			if tt.editable {
				assert.Nil(t, state.LockedUntil)
			} else {
				require.NotNil(t, state.LockedUntil)
				assert.True(t, state.LockedUntil.Equal(*tt.lockedUntil))
			}
		})
	}
}

func TestLockedForOneHour(t *testing.T) {
	state := Evaluate(true, at(time.Hour), now)

	require.False(t, state.Editable)
	assert.Equal(t, time.Hour, state.Remaining(now))
	assert.Equal(t, "1h 0m", FormatRemaining(state.Remaining(now)))
}

func TestEvaluateCopiesLock(t *testing.T) {
	until := now.Add(2 * time.Hour)
	state := Evaluate(true, &until, now)

	until = now.Add(-time.Hour)

	require.NotNil(t, state.LockedUntil)
	assert.Equal(t, now.Add(2*time.Hour), *state.LockedUntil)
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, time.Duration(0), State{Editable: true}.Remaining(now))

	state := Evaluate(true, at(3*time.Hour+42*time.Minute+59*time.Second), now)
	assert.Equal(t, "3h 42m", FormatRemaining(state.Remaining(now)))

	// evaluated earlier, displayed after expiry
	assert.Equal(t, time.Duration(0), state.Remaining(now.Add(4*time.Hour)))
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "0h 0m"},
		{59 * time.Second, "0h 0m"},
		{59*time.Minute + 59*time.Second, "0h 59m"},
		{time.Hour, "1h 0m"},
		{12 * time.Hour, "12h 0m"},
		{-time.Minute, "0h 0m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatRemaining(tt.in), "FormatRemaining(%s)", tt.in)
	}
}

func TestNextLock(t *testing.T) {
	next := NextLock(now)

	assert.Equal(t, now.Add(12*time.Hour), next)
	assert.False(t, Evaluate(true, &next, now).Editable)
	assert.True(t, Evaluate(true, &next, next).Editable)
}
