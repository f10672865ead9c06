// Package metrics defines and registers all custom Prometheus metrics for the
// account service. It is the single source of truth for metric names, labels,
// and help strings. Metrics self-register with the default registry via
// promauto and are exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "account"

// Login outcome label values.
const (
	LoginSuccess         = "success"
	LoginInvalidPassword = "invalid_password"
	LoginLocked          = "locked"
	LoginNotFound        = "not_found"
)

// Reset-token trigger label values.
const (
	TriggerLockout = "lockout"
	TriggerRequest = "request"
)

// Reset-email outcome label values.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// LoginAttemptsTotal counts login attempts by outcome.
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// LockoutsTotal counts accounts transitioned to the locked state.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of account lockouts triggered by failed logins.",
	},
)

// ResetTokensIssuedTotal counts minted reset tokens.
// Label:
//   - trigger: "lockout" (auto-minted on the locking failure) or "request"
//     (forgot-password).
var ResetTokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_tokens_issued_total",
		Help:      "Total number of password reset tokens minted, by trigger.",
	},
	[]string{"trigger"},
)

// ResetEmailsTotal counts reset notification deliveries by outcome. A
// "failed" increment is the operator's side channel for notifier errors that
// deliberately do not fail the enclosing operation.
var ResetEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_emails_total",
		Help:      "Total number of password reset emails attempted, by outcome (sent/failed).",
	},
	[]string{"outcome"},
)

// ResetThrottledTotal counts forgot-password requests suppressed by the
// per-address cooldown.
var ResetThrottledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_requests_throttled_total",
		Help:      "Total number of reset requests suppressed by the per-email cooldown.",
	},
)

// PasswordsResetTotal counts completed token redemptions.
var PasswordsResetTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "passwords_reset_total",
		Help:      "Total number of passwords changed through token redemption.",
	},
)

// SignupsTotal counts successfully registered accounts.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created.",
	},
)
