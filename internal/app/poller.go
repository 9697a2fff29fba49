package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/pinwall/internal/auth"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 30 * time.Second
)

// Refresher is the gallery store as the poller sees it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartPoller launches a background goroutine that refreshes the gallery,
// backing off exponentially while refreshes fail. It returns immediately;
// the returned channel closes when the goroutine exits.
func StartPoller(ctx context.Context, store Refresher, interval time.Duration, log zerolog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		failures := 0
		for {
			if err := store.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				level := log.Warn()
				if errors.Is(err, auth.ErrAuthRequired) {
					level = log.Info()
				}
				level.Err(err).Int("failures", failures).Msg("gallery poll failed")
			} else {
				if failures > 0 {
					log.Info().Int("failures", failures).Msg("gallery poll recovered")
				}
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
