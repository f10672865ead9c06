package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrMissingFields = errors.New("username, password, and email are required")
var ErrUsernameTaken = errors.New("username already exists")
var ErrEmailTaken = errors.New("email already exists")
var ErrAccountNotFound = errors.New("account not found")
var ErrAccountLocked = errors.New("account is locked")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrTooManyAttempts = errors.New("too many failed attempts")
var ErrInvalidResetToken = errors.New("password reset token is invalid or has expired")

// InvalidCredentialsError is the failed-login error below the lockout
// threshold. It matches ErrInvalidCredentials under errors.Is and carries the
// number of attempts the caller has left before the account locks.
type InvalidCredentialsError struct {
	AttemptsLeft int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials (%d attempts left)", e.AttemptsLeft)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// PasswordReset is a pending self-service reset. Token and ExpiresAt always
// travel together; an account with no pending reset holds a nil *PasswordReset.
type PasswordReset struct {
	Token     string
	ExpiresAt time.Time
}

// Active reports whether the token is still redeemable at the given instant.
// Expiry is exclusive: a token is dead the moment now reaches ExpiresAt.
func (r *PasswordReset) Active(now time.Time) bool {
	return r != nil && now.Before(r.ExpiresAt)
}

// Account is the sole aggregate of the account-security core.
type Account struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	LoginAttempts int            `json:"-"`
	LockUntil     *time.Time     `json:"-"`
	Reset         *PasswordReset `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Locked reports whether the account is in the LOCKED state at the given
// instant. A LockUntil in the past does not block login; only the timestamp
// comparison decides, the field is not eagerly cleared.
func (a *Account) Locked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// Unlock resets the attempt counter and clears any lock. Called on successful
// login and on completed password reset, so a reset actually unlocks the
// account.
func (a *Account) Unlock() {
	a.LoginAttempts = 0
	a.LockUntil = nil
}

// LockFor places the account in the LOCKED state for the given cooldown.
func (a *Account) LockFor(d time.Duration, now time.Time) {
	until := now.Add(d)
	a.LockUntil = &until
}
