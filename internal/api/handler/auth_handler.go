package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/account-service/internal/core/domain"
	"github.com/ballotbox/account-service/internal/core/ports"
)

type AuthHandler struct {
	accounts ports.AccountService
}

func NewAuthHandler(accounts ports.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Signup registers a new account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Signup details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: domain.ErrMissingFields.Error()})
	}

	res, err := h.accounts.Signup(c.Request().Context(), req.Username, req.Password, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signupResponse{
		Message: "User registered successfully",
		Token:   res.Token,
	})
}

// Login authenticates an account and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  loginFailedResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	res, err := h.accounts.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		var ice *domain.InvalidCredentialsError
		switch {
		case errors.As(err, &ice):
			return c.JSON(http.StatusUnauthorized, loginFailedResponse{
				Message:      "Invalid credentials",
				AttemptsLeft: ice.AttemptsLeft,
			})
		case errors.Is(err, domain.ErrTooManyAttempts):
			return c.JSON(http.StatusForbidden, messageResponse{
				Message: "Too many failed attempts. A password reset email has been sent.",
			})
		case errors.Is(err, domain.ErrAccountLocked):
			return c.JSON(http.StatusForbidden, messageResponse{
				Message: "Your account is locked. Please reset your password.",
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message:  "You were logged in successfully!",
		Token:    res.Token,
		Success:  true,
		Username: res.Username,
	})
}

// ForgotPassword mints a reset token and emails the redemption link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset email sent"})
}

// ResetForm serves the minimal password form the reset link lands on.
// Presentation only; the form posts to the API route.
func (h *AuthHandler) ResetForm(c echo.Context) error {
	token := url.PathEscape(c.Param("token"))
	return c.HTML(http.StatusOK, fmt.Sprintf(`
    <form action="/api/reset-password/%s" method="POST">
      <input type="password" name="password" placeholder="New password" required>
      <button type="submit">Reset Password</button>
    </form>
  `, token))
}

// ResetPassword redeems a reset token and installs a new password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  messageResponse
// @Router       /api/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password has been reset successfully"})
}

// Me returns the identity carried by the verified session token.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  messageResponse
// @Router       /api/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	username, _ := c.Get("username").(string)
	if username == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return c.JSON(http.StatusOK, meResponse{Username: username})
}

// Welcome handles the bare root route.
func (h *AuthHandler) Welcome(c echo.Context) error {
	return c.String(http.StatusOK, "Welcome To Our Server :)")
}
