package ports

import (
	"context"
	"time"

	"github.com/ballotbox/account-service/internal/core/domain"
)

// AccountRepository is the credential store. Every mutating operation must be
// an atomic read-modify-write on the account document; the core relies on
// that and holds no locks of its own.
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByValidResetToken matches an account whose pending reset token
	// equals token and expires strictly after now. A consumed, expired, or
	// never-issued token yields domain.ErrInvalidResetToken.
	FindByValidResetToken(ctx context.Context, token string, now time.Time) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	// IncrementLoginAttempts adds one failed attempt to the stored counter in
	// a single atomic store operation and returns the post-increment value.
	// Concurrent failed logins against the same account each observe a
	// distinct value; none may be lost.
	IncrementLoginAttempts(ctx context.Context, username string) (int, error)
}
