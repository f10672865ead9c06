package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	deliverTimeout = 15 * time.Second
)

type mailJob struct {
	email     string
	resetPath string
}

// MailDispatcher decouples reset-mail delivery from the request path. It
// implements ports.ResetNotifier by enqueueing onto a fixed set of workers,
// sharded by recipient so sends to one address stay ordered. Workers deliver
// through the wrapped notifier and record each outcome.
type MailDispatcher struct {
	workers []chan mailJob
	sender  ports.ResetNotifier
	log     zerolog.Logger
}

// NewMailDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, sender ports.ResetNotifier, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan mailJob, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mailJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// SendPasswordReset enqueues a delivery and returns once the job is accepted.
// The request context is deliberately not carried into delivery: the job
// outlives the request, and its outcome is recorded by the worker.
func (d *MailDispatcher) SendPasswordReset(_ context.Context, email, resetPath string) error {
	d.workers[d.shardIndex(email)] <- mailJob{email: email, resetPath: resetPath}
	return nil
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan mailJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			sendCtx, cancel := context.WithTimeout(ctx, deliverTimeout)
			err := d.sender.SendPasswordReset(sendCtx, job.email, job.resetPath)
			cancel()
			if err != nil {
				d.log.Warn().Err(err).
					Str("email", job.email).
					Int("worker_id", id).
					Msg("reset mail delivery failed")
				continue
			}
			d.log.Info().Str("email", job.email).Int("worker_id", id).Msg("reset mail delivered")
		}
	}
}
