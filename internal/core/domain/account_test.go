package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAccount_Locked(t *testing.T) {
	now := time.Now().UTC()

	a := &Account{}
	if a.Locked(now) {
		t.Fatalf("account with no LockUntil must not be locked")
	}

	past := now.Add(-time.Minute)
	a.LockUntil = &past
	if a.Locked(now) {
		t.Fatalf("expired lock must not block login")
	}

	future := now.Add(time.Hour)
	a.LockUntil = &future
	if !a.Locked(now) {
		t.Fatalf("future LockUntil must lock the account")
	}
}

func TestAccount_Unlock(t *testing.T) {
	now := time.Now().UTC()
	a := &Account{LoginAttempts: 5}
	a.LockFor(time.Hour, now)

	a.Unlock()

	if a.LoginAttempts != 0 {
		t.Fatalf("expected 0 attempts after unlock, got %d", a.LoginAttempts)
	}
	if a.LockUntil != nil {
		t.Fatalf("expected LockUntil cleared after unlock")
	}
}

func TestPasswordReset_Active(t *testing.T) {
	now := time.Now().UTC()

	var none *PasswordReset
	if none.Active(now) {
		t.Fatalf("nil reset must not be active")
	}

	expired := &PasswordReset{Token: "t", ExpiresAt: now.Add(-time.Second)}
	if expired.Active(now) {
		t.Fatalf("expired reset must not be active")
	}

	boundary := &PasswordReset{Token: "t", ExpiresAt: now}
	if boundary.Active(now) {
		t.Fatalf("expiry must be exclusive at the boundary")
	}

	live := &PasswordReset{Token: "t", ExpiresAt: now.Add(time.Hour)}
	if !live.Active(now) {
		t.Fatalf("unexpired reset must be active")
	}
}

func TestInvalidCredentialsError_Is(t *testing.T) {
	err := error(&InvalidCredentialsError{AttemptsLeft: 3})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("InvalidCredentialsError must match ErrInvalidCredentials")
	}

	var ice *InvalidCredentialsError
	if !errors.As(err, &ice) || ice.AttemptsLeft != 3 {
		t.Fatalf("expected AttemptsLeft 3, got %+v", ice)
	}
}
