package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ballotbox/account-service/internal/core/domain"
)

func resolveForTest(t *testing.T, err error) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return resolveError(err, zerolog.Nop(), c)
}

func TestResolveError_DomainMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrMissingFields, http.StatusBadRequest},
		{domain.ErrUsernameTaken, http.StatusBadRequest},
		{domain.ErrEmailTaken, http.StatusBadRequest},
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{domain.ErrAccountLocked, http.StatusForbidden},
		{domain.ErrTooManyAttempts, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{&domain.InvalidCredentialsError{AttemptsLeft: 2}, http.StatusUnauthorized},
		{domain.ErrInvalidResetToken, http.StatusBadRequest},
	}

	for _, tc := range cases {
		if code, _ := resolveForTest(t, tc.err); code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, code)
		}
	}
}

func TestResolveError_UnexpectedErrorIsGeneric(t *testing.T) {
	code, msg := resolveForTest(t, errors.New("mongo: connection refused"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if msg != "Server error" {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}

func TestHTTPErrorHandler_Envelope(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	e.GET("/boom", func(c echo.Context) error {
		return domain.ErrAccountLocked
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] == "" {
		t.Fatalf("expected message envelope, got %s", rec.Body.String())
	}
}
