package sweeper

import (
	"context"
	"log/slog"
	"time"
)

type BookingCompleter interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}

// Sweeper closes out elapsed bookings on a timer. Completion is a server-side
// decision: a paid booking whose end time has passed is done whether or not
// any client ever comes back to look at it.
type Sweeper struct {
	bookings BookingCompleter
	logger   *slog.Logger
	every    time.Duration
	now      func() time.Time
}

func New(bookings BookingCompleter, logger *slog.Logger, every time.Duration) *Sweeper {
	if every <= 0 {
		every = time.Minute
	}
	return &Sweeper{bookings: bookings, logger: logger, every: every, now: time.Now}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.bookings.CompleteElapsed(ctx, s.now())
	if err != nil {
		s.logger.Error("completion sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("bookings completed", "count", n)
	}
}
