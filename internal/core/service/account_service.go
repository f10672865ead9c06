package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ballotbox/account-service/internal/core/domain"
	"github.com/ballotbox/account-service/internal/core/ports"
	"github.com/ballotbox/account-service/internal/metrics"
)

const resetTokenBytes = 20 // 160 bits of entropy, hex-encoded on the wire

// SecurityConfig tunes the lockout and reset state machine. Zero values are
// replaced with the defaults the original deployment ran with.
type SecurityConfig struct {
	MaxLoginAttempts int           // failures before the account locks (5)
	LockDuration     time.Duration // lockout cooldown (1h)
	LockoutTokenTTL  time.Duration // TTL of the token minted on lockout (1h)
	ResetTokenTTL    time.Duration // TTL of a requested reset token (24h)
	BcryptCost       int           // bcrypt work factor (10)
	OpTimeout        time.Duration // upper bound per operation (5s)
}

func (c *SecurityConfig) applyDefaults() {
	if c.MaxLoginAttempts <= 0 {
		c.MaxLoginAttempts = 5
	}
	if c.LockDuration <= 0 {
		c.LockDuration = time.Hour
	}
	if c.LockoutTokenTTL <= 0 {
		c.LockoutTokenTTL = time.Hour
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = 24 * time.Hour
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 5 * time.Second
	}
}

// AccountService implements signup, the login lockout state machine, and the
// password-reset token lifecycle. It is the only component holding business
// rules; storage, throttling, and mail delivery sit behind ports.
type AccountService struct {
	repo      ports.AccountRepository
	notifier  ports.ResetNotifier
	throttle  ports.ResetThrottle
	cfg       SecurityConfig
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAccountService(
	repo ports.AccountRepository,
	notifier ports.ResetNotifier,
	throttle ports.ResetThrottle,
	jwtSecret string,
	tokenTTL time.Duration,
	cfg SecurityConfig,
	logger zerolog.Logger,
) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	cfg.applyDefaults()
	return &AccountService{
		repo:      repo,
		notifier:  notifier,
		throttle:  throttle,
		cfg:       cfg,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Signup registers a new account and returns a session token for it.
func (s *AccountService) Signup(ctx context.Context, username, password, email string) (*ports.SignupResult, error) {
	if username == "" || password == "" || email == "" {
		return nil, domain.ErrMissingFields
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	// Explicit duplicate check ahead of the store's unique index so the
	// common case reads as a domain rule, not a decoded index violation.
	switch _, err := s.repo.FindByUsername(ctx, username); {
	case err == nil:
		return nil, domain.ErrUsernameTaken
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := s.sessionToken(created)
	if err != nil {
		return nil, err
	}

	metrics.SignupsTotal.Inc()
	s.logger.Info().Str("username", username).Msg("account registered")

	return &ports.SignupResult{Username: created.Username, Token: token}, nil
}

// Login runs the lockout state machine for one attempt.
//
// A locked account fails fast without counting the attempt. A wrong password
// below the threshold increments the counter and reports attempts left; the
// threshold failure locks the account for the cooldown, mints a reset token,
// and emails the reset link. A correct password resets the counter, clears
// any stale lock, and issues a session token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginNotFound).Inc()
		}
		return nil, err
	}

	now := time.Now().UTC()
	if account.Locked(now) {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginLocked).Inc()
		s.logger.Warn().Str("username", username).Time("lock_until", *account.LockUntil).Msg("login rejected: account locked")
		return nil, domain.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, s.recordFailedLogin(ctx, account, now)
	}

	account.Unlock()
	account.UpdatedAt = now
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	token, err := s.sessionToken(account)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginSuccess).Inc()
	s.logger.Info().Str("username", username).Msg("login succeeded")

	return &ports.LoginResult{Username: account.Username, Token: token}, nil
}

// recordFailedLogin persists one failed attempt and decides between the
// attempts-left error and the lockout transition. The counter goes through
// the repository's atomic increment, not the snapshot read earlier in Login,
// so concurrent failures against one account never lose updates and the
// threshold cannot be undershot. The locked state and the minted token are
// durable before the notifier runs, so a mail failure never rolls back the
// lock.
func (s *AccountService) recordFailedLogin(ctx context.Context, account *domain.Account, now time.Time) error {
	attempts, err := s.repo.IncrementLoginAttempts(ctx, account.Username)
	if err != nil {
		return err
	}

	if attempts < s.cfg.MaxLoginAttempts {
		left := s.cfg.MaxLoginAttempts - attempts
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginInvalidPassword).Inc()
		s.logger.Warn().Str("username", account.Username).Int("attempts_left", left).Msg("login failed: invalid credentials")
		return &domain.InvalidCredentialsError{AttemptsLeft: left}
	}

	account.LoginAttempts = attempts
	account.UpdatedAt = now
	account.LockFor(s.cfg.LockDuration, now)
	token, err := s.mintResetToken(account, s.cfg.LockoutTokenTTL, now)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return err
	}

	metrics.LockoutsTotal.Inc()
	metrics.ResetTokensIssuedTotal.WithLabelValues(metrics.TriggerLockout).Inc()
	s.logger.Warn().Str("username", account.Username).Int("attempts", attempts).Msg("account locked: too many failed attempts")

	s.sendResetMail(ctx, account, token)
	return domain.ErrTooManyAttempts
}

// RequestPasswordReset mints a fresh reset token for the account registered
// under email and sends the redemption link. The new token replaces any
// outstanding one. A cooldown hit is not an error: the caller still gets
// success and the outstanding token stays live.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingFields
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, email)
		if err != nil {
			// Fail open: a broken throttle must not block password recovery.
			s.logger.Warn().Err(err).Msg("reset throttle unavailable")
		} else if !ok {
			metrics.ResetThrottledTotal.Inc()
			s.logger.Info().Str("username", account.Username).Msg("reset request suppressed by cooldown")
			return nil
		}
	}

	now := time.Now().UTC()
	token, err := s.mintResetToken(account, s.cfg.ResetTokenTTL, now)
	if err != nil {
		return err
	}
	account.UpdatedAt = now
	if err := s.repo.Update(ctx, account); err != nil {
		return err
	}

	metrics.ResetTokensIssuedTotal.WithLabelValues(metrics.TriggerRequest).Inc()
	s.logger.Info().Str("username", account.Username).Msg("reset token issued")

	s.sendResetMail(ctx, account, token)
	return nil
}

// ResetPassword redeems a token and installs a new password. Redemption also
// clears the attempt counter and any lock, so the reset link mailed on
// lockout actually restores access.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrMissingFields
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	now := time.Now().UTC()
	account, err := s.repo.FindByValidResetToken(ctx, token, now)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = string(hash)
	account.Reset = nil
	account.Unlock()
	account.UpdatedAt = now

	if err := s.repo.Update(ctx, account); err != nil {
		return err
	}

	metrics.PasswordsResetTotal.Inc()
	s.logger.Info().Str("username", account.Username).Msg("password reset completed")
	return nil
}

// mintResetToken attaches a fresh 160-bit token to the account, overwriting
// any previous one. The caller persists the account.
func (s *AccountService) mintResetToken(account *domain.Account, ttl time.Duration, now time.Time) (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("mint reset token: %w", err)
	}
	token := hex.EncodeToString(b)
	account.Reset = &domain.PasswordReset{Token: token, ExpiresAt: now.Add(ttl)}
	return token, nil
}

// sendResetMail invokes the notifier for an already-persisted token. A
// failure never fails the enclosing operation; only a token prefix is ever
// logged. Delivery-outcome metrics belong to the notifier stack, which sees
// the real result even when sends are queued.
func (s *AccountService) sendResetMail(ctx context.Context, account *domain.Account, token string) {
	resetPath := "/reset-password/" + token
	if err := s.notifier.SendPasswordReset(ctx, account.Email, resetPath); err != nil {
		s.logger.Warn().Err(err).
			Str("username", account.Username).
			Str("token_prefix", token[:8]).
			Msg("reset email delivery failed")
		return
	}
	s.logger.Info().Str("username", account.Username).Msg("reset email handed to notifier")
}

func (s *AccountService) sessionToken(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  account.ID,
		"username": account.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
