package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/account-service/internal/core/domain"
	"github.com/ballotbox/account-service/internal/core/ports"
)

type stubAccountService struct {
	signupFn func(ctx context.Context, username, password, email string) (*ports.SignupResult, error)
	loginFn  func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	forgotFn func(ctx context.Context, email string) error
	resetFn  func(ctx context.Context, token, newPassword string) error
}

func (s *stubAccountService) Signup(ctx context.Context, username, password, email string) (*ports.SignupResult, error) {
	return s.signupFn(ctx, username, password, email)
}

func (s *stubAccountService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

// newTestServer wires the stub into an Echo instance with the same validator
// and error mapping the real router uses, so tests observe final statuses.
func newTestServer(stub *stubAccountService) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Server error"
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = he.Error()
		case errors.Is(err, domain.ErrAccountNotFound):
			code, msg = http.StatusNotFound, "User not found"
		case errors.Is(err, domain.ErrUsernameTaken):
			code, msg = http.StatusBadRequest, "Username already exists"
		case errors.Is(err, domain.ErrInvalidResetToken):
			code, msg = http.StatusBadRequest, "The password reset link is invalid or has expired. Please request a new one."
		}
		_ = c.JSON(code, map[string]string{"message": msg})
	}

	h := NewAuthHandler(stub)
	e.POST("/api/signup", h.Signup)
	e.POST("/api/login", h.Login)
	e.POST("/api/forgot-password", h.ForgotPassword)
	e.GET("/reset-password/:token", h.ResetForm)
	e.POST("/api/reset-password/:token", h.ResetPassword)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestSignupHandler_Success(t *testing.T) {
	stub := &stubAccountService{
		signupFn: func(_ context.Context, username, password, email string) (*ports.SignupResult, error) {
			if username != "alice" || password != "pw1" || email != "a@x.com" {
				t.Fatalf("unexpected args: %s %s %s", username, password, email)
			}
			return &ports.SignupResult{Username: username, Token: "token123"}, nil
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/signup", `{"username":"alice","password":"pw1","email":"a@x.com"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["message"] != "User registered successfully" || resp["token"] != "token123" {
		t.Fatalf("unexpected payload: %v", resp)
	}
}

func TestSignupHandler_MissingFields(t *testing.T) {
	stub := &stubAccountService{
		signupFn: func(context.Context, string, string, string) (*ports.SignupResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/signup", `{"username":"alice"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSignupHandler_DuplicateUsername(t *testing.T) {
	stub := &stubAccountService{
		signupFn: func(context.Context, string, string, string) (*ports.SignupResult, error) {
			return nil, domain.ErrUsernameTaken
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/signup", `{"username":"alice","password":"pw1","email":"a@x.com"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Username already exists" {
		t.Fatalf("unexpected message")
	}
}

func TestLoginHandler_Success(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(_ context.Context, username, password string) (*ports.LoginResult, error) {
			return &ports.LoginResult{Username: username, Token: "token123"}, nil
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/login", `{"username":"alice","password":"pw1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != true || resp["username"] != "alice" || resp["token"] != "token123" {
		t.Fatalf("unexpected payload: %v", resp)
	}
	if resp["message"] != "You were logged in successfully!" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, &domain.InvalidCredentialsError{AttemptsLeft: 3}
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/login", `{"username":"alice","password":"bad"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["message"] != "Invalid credentials" || resp["attemptsLeft"] != float64(3) {
		t.Fatalf("unexpected payload: %v", resp)
	}
}

func TestLoginHandler_Locked(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrAccountLocked
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/login", `{"username":"alice","password":"pw1"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Your account is locked. Please reset your password." {
		t.Fatalf("unexpected message")
	}
}

func TestLoginHandler_NewlyLocked(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrTooManyAttempts
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/login", `{"username":"alice","password":"bad"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Too many failed attempts. A password reset email has been sent." {
		t.Fatalf("unexpected message")
	}
}

func TestLoginHandler_NotFound(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrAccountNotFound
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/login", `{"username":"ghost","password":"pw"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestForgotPasswordHandler(t *testing.T) {
	stub := &stubAccountService{
		forgotFn: func(_ context.Context, email string) error {
			if email != "a@x.com" {
				t.Fatalf("unexpected email %q", email)
			}
			return nil
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/forgot-password", `{"email":"a@x.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Password reset email sent" {
		t.Fatalf("unexpected message")
	}
}

func TestForgotPasswordHandler_UnknownEmail(t *testing.T) {
	stub := &stubAccountService{
		forgotFn: func(context.Context, string) error { return domain.ErrAccountNotFound },
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/forgot-password", `{"email":"ghost@x.com"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResetFormHandler(t *testing.T) {
	stub := &stubAccountService{}
	req := httptest.NewRequest(http.MethodGet, "/reset-password/tok123", nil)
	rec := httptest.NewRecorder()
	newTestServer(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/api/reset-password/tok123"`) {
		t.Fatalf("form does not target the API route: %s", rec.Body.String())
	}
}

func TestResetPasswordHandler_Success(t *testing.T) {
	stub := &stubAccountService{
		resetFn: func(_ context.Context, token, newPassword string) error {
			if token != "tok123" || newPassword != "pw2" {
				t.Fatalf("unexpected args: %s %s", token, newPassword)
			}
			return nil
		},
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/reset-password/tok123", `{"password":"pw2"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Password has been reset successfully" {
		t.Fatalf("unexpected message")
	}
}

func TestResetPasswordHandler_FormEncoded(t *testing.T) {
	stub := &stubAccountService{
		resetFn: func(_ context.Context, _, newPassword string) error {
			if newPassword != "pw2" {
				t.Fatalf("form-encoded password not bound, got %q", newPassword)
			}
			return nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/reset-password/tok123", strings.NewReader("password=pw2"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	newTestServer(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestResetPasswordHandler_InvalidToken(t *testing.T) {
	stub := &stubAccountService{
		resetFn: func(context.Context, string, string) error { return domain.ErrInvalidResetToken },
	}
	rec := doJSON(newTestServer(stub), http.MethodPost, "/api/reset-password/bad", `{"password":"pw2"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
