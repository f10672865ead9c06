package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/ballotbox/account-service/internal/infrastructure/notify"
	"github.com/ballotbox/account-service/internal/metrics"
)

type captureNotifier struct {
	mu    sync.Mutex
	sends []string
	done  chan struct{}
	want  int
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, resetPath string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, email+resetPath)
	if len(n.sends) == n.want {
		close(n.done)
	}
	return nil
}

func TestMailDispatcher_DeliversAllJobs(t *testing.T) {
	capture := &captureNotifier{done: make(chan struct{}), want: 3}
	d := NewMailDispatcher(2, capture, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if err := d.SendPasswordReset(context.Background(), email, "/reset-password/t"); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	select {
	case <-capture.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected 3 deliveries, got %d", len(capture.sends))
	}
}

func TestMailDispatcher_SameRecipientStaysOrdered(t *testing.T) {
	capture := &captureNotifier{done: make(chan struct{}), want: 5}
	d := NewMailDispatcher(3, capture, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	paths := []string{"/reset-password/1", "/reset-password/2", "/reset-password/3", "/reset-password/4", "/reset-password/5"}
	for _, p := range paths {
		_ = d.SendPasswordReset(context.Background(), "a@x.com", p)
	}

	select {
	case <-capture.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for deliveries")
	}

	for i, p := range paths {
		if capture.sends[i] != "a@x.com"+p {
			t.Fatalf("delivery %d out of order: %v", i, capture.sends)
		}
	}
}

type failingNotifier struct{}

func (failingNotifier) SendPasswordReset(context.Context, string, string) error {
	return errors.New("smtp unreachable")
}

// A queued send reports success at enqueue, so the failed counter has to be
// driven by the worker observing the delivery, not by the caller.
func TestMailDispatcher_FailedDeliveryMovesCounter(t *testing.T) {
	failedCounter := metrics.ResetEmailsTotal.WithLabelValues(metrics.OutcomeFailed)
	before := testutil.ToFloat64(failedCounter)

	d := NewMailDispatcher(1, notify.NewInstrumented(failingNotifier{}), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	if err := d.SendPasswordReset(context.Background(), "a@x.com", "/reset-password/t"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(failedCounter) < before+1 {
		if time.Now().After(deadline) {
			t.Fatalf("failed-delivery counter never moved")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMailDispatcher_ShardIsStable(t *testing.T) {
	d := NewMailDispatcher(8, &captureNotifier{done: make(chan struct{}), want: 0}, zerolog.Nop())

	first := d.shardIndex("a@x.com")
	for i := 0; i < 100; i++ {
		if d.shardIndex("a@x.com") != first {
			t.Fatalf("shard index not deterministic")
		}
	}
}
