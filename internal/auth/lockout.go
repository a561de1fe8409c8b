package auth

import (
	"time"

	"github.com/secsys/security-service/internal/domain"
)

// Lockout policy constants. The threshold counts consecutive failed password
// attempts; the duration is measured from the failure that crossed the
// threshold.
const (
	LockoutThreshold = 3
	LockoutDuration  = 30 * time.Minute
)

// RecordFailure increments the failed-attempt counter and locks the account
// once the threshold is reached. A failure against an already-locked account
// still increments the counter but never extends LockoutUntil.
func RecordFailure(account *domain.Account, now time.Time) {
	account.FailedLoginAttempts++
	failedAt := now
	account.LastFailedLoginAt = &failedAt

	if !account.IsLocked && account.FailedLoginAttempts >= LockoutThreshold {
		until := now.Add(LockoutDuration)
		account.IsLocked = true
		account.LockoutUntil = &until
	}
}

// RecordSuccess resets all lockout state after a successful authentication.
func RecordSuccess(account *domain.Account) {
	account.FailedLoginAttempts = 0
	account.LastFailedLoginAt = nil
	account.IsLocked = false
	account.LockoutUntil = nil
}

// CheckAndExpire clears an expired lockout and reports whether it did so.
// A still-active lockout (or an unlocked account) is left untouched.
func CheckAndExpire(account *domain.Account, now time.Time) bool {
	if !account.IsLocked || account.LockoutUntil == nil {
		return false
	}
	if !now.After(*account.LockoutUntil) {
		return false
	}
	RecordSuccess(account)
	return true
}

// RemainingLockoutMinutes returns the lockout time left, truncated to whole
// minutes. Only meaningful while the account is locked.
func RemainingLockoutMinutes(account *domain.Account, now time.Time) int {
	if account.LockoutUntil == nil {
		return 0
	}
	remaining := account.LockoutUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Minute)
}
