package ports

import "context"

// ResetNotifier delivers a password-reset link out-of-band. resetPath is the
// relative redemption path (e.g. "/reset-password/<token>"); the adapter owns
// turning it into an absolute link.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, resetPath string) error
}

// ResetThrottle bounds how often reset mail is sent per address. Allow
// reports whether a send may proceed now; a denial is not an error.
type ResetThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}
