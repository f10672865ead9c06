package ports

import "context"

// SignupResult is returned on successful registration.
type SignupResult struct {
	Username string
	Token    string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Username string
	Token    string
}

type AccountService interface {
	Signup(ctx context.Context, username, password, email string) (*SignupResult, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
