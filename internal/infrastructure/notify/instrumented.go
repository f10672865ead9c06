package notify

import (
	"context"

	"github.com/ballotbox/account-service/internal/core/ports"
	"github.com/ballotbox/account-service/internal/metrics"
)

// InstrumentedNotifier decorates a ResetNotifier with delivery-outcome
// counters. It wraps the sender that actually talks to the mail provider, so
// the counters move when a delivery completes, not when a job is enqueued.
type InstrumentedNotifier struct {
	next ports.ResetNotifier
}

func NewInstrumented(next ports.ResetNotifier) *InstrumentedNotifier {
	return &InstrumentedNotifier{next: next}
}

func (n *InstrumentedNotifier) SendPasswordReset(ctx context.Context, email, resetPath string) error {
	if err := n.next.SendPasswordReset(ctx, email, resetPath); err != nil {
		metrics.ResetEmailsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return err
	}
	metrics.ResetEmailsTotal.WithLabelValues(metrics.OutcomeSent).Inc()
	return nil
}
