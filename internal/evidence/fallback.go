package evidence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"civicfix/pkg/platform/circuit"
)

// probeCooldown is how long an open breaker waits before the next upload
// is allowed to probe the primary again.
const probeCooldown = 30 * time.Second

// FallbackStore routes uploads to the primary store, falling back to the
// secondary when the primary fails. A circuit breaker stops hammering a
// primary that is clearly down; once per cooldown an upload probes the
// primary so the breaker can close again when the service recovers.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	cooldown time.Duration
	now      func() time.Time

	mu      sync.Mutex
	retryAt time.Time
}

func NewFallbackStore(primary, fallback Store, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("evidence-media", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		logger:   logger,
		cooldown: probeCooldown,
		now:      time.Now,
	}
}

func (s *FallbackStore) Store(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	if s.breaker.IsOpen() && !s.probeDue() {
		return s.fallback.Store(ctx, filename, mimeType, data)
	}

	url, err := s.primary.Store(ctx, filename, mimeType, data)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "media service recovered", "breaker", s.breaker.Name())
		}
		if s.breaker.IsOpen() {
			// Not enough consecutive probe successes yet; let the next
			// upload probe immediately instead of waiting a full cooldown.
			s.scheduleProbe(0)
		}
		return url, nil
	}

	s.scheduleProbe(s.cooldown)
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "media service failing, switching to local storage",
			"breaker", s.breaker.Name(), "error", err)
	} else {
		s.logger.WarnContext(ctx, "media upload failed, using local storage", "error", err)
	}
	return s.fallback.Store(ctx, filename, mimeType, data)
}

func (s *FallbackStore) probeDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.retryAt)
}

func (s *FallbackStore) scheduleProbe(after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAt = s.now().Add(after)
}
