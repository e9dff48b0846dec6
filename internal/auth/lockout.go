package auth

import "time"

const (
	// MaxLoginAttempts is the number of consecutive failures that locks an
	// account.
	MaxLoginAttempts = 5

	// LockoutDuration is how long an account stays locked once tripped.
	LockoutDuration = 30 * time.Minute
)

// IsLocked reports whether a lock is in effect at now. A nil or past
// lockedUntil means the account is open; correctness of credentials is
// irrelevant here.
func IsLocked(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}

// ShouldLock reports whether the failure counter has reached the lock
// threshold.
func ShouldLock(attempts int) bool {
	return attempts >= MaxLoginAttempts
}

// LockoutExpiry returns when a lock applied at now expires.
func LockoutExpiry(now time.Time) time.Time {
	return now.Add(LockoutDuration)
}

// RemainingLockout returns how much lock time is left at now, or zero when
// no lock is in effect. Used to tell a locked-out caller how long to wait.
func RemainingLockout(lockedUntil *time.Time, now time.Time) time.Duration {
	if !IsLocked(lockedUntil, now) {
		return 0
	}
	return lockedUntil.Sub(now)
}
