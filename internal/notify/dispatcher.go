package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"civicfix/internal/platform/metrics"
)

// StatusNotice is one queued status-update email.
type StatusNotice struct {
	Email       string
	ComplaintID uuid.UUID
	NewStatus   string
}

// Dispatcher consumes status notices from a channel and sends them through
// the mailer. Delivery is best effort: a failed send is logged and counted,
// never surfaced to the request that caused it.
type Dispatcher struct {
	mailer  Mailer
	inbox   chan StatusNotice
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(mailer Mailer, buffer int, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		mailer:  mailer,
		inbox:   make(chan StatusNotice, buffer),
		logger:  logger,
		metrics: m,
	}
}

// Enqueue queues a notice without blocking. When the inbox is full the
// notice is dropped and counted as a failure.
func (d *Dispatcher) Enqueue(ctx context.Context, notice StatusNotice) {
	select {
	case d.inbox <- notice:
	default:
		d.logger.WarnContext(ctx, "notification queue full, dropping status email",
			"complaint_id", notice.ComplaintID)
		d.countFailure()
	}
}

// Run processes notices until the context is cancelled. Unlike its callers,
// Run owns a long-lived context; send errors do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notice := <-d.inbox:
			if err := d.mailer.SendStatusUpdate(ctx, notice.Email, notice.ComplaintID, notice.NewStatus); err != nil {
				d.logger.ErrorContext(ctx, "failed to send status update email",
					"complaint_id", notice.ComplaintID,
					"error", err)
				d.countFailure()
			}
		}
	}
}

func (d *Dispatcher) countFailure() {
	if d.metrics != nil {
		d.metrics.NotifyFailures.Inc()
	}
}
