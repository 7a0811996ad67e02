package speech

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Retrying retries a Synthesizer a bounded number of times with a fixed
// delay, then gives up with the last error.
type Retrying struct {
	Synthesizer
	MaxAttempts int
	Delay       time.Duration
}

// WithRetry wraps s. maxAttempts below one is treated as one.
func WithRetry(s Synthesizer, maxAttempts int, delay time.Duration) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrying{Synthesizer: s, MaxAttempts: maxAttempts, Delay: delay}
}

func (r *Retrying) Synthesize(ctx context.Context, text string) (*AudioTrack, error) {
	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrapf(ctx.Err(), "gave up after %d attempts: %v", attempt-1, lastErr)
			case <-time.After(r.Delay):
			}
		}

		track, err := r.Synthesizer.Synthesize(ctx, text)
		if err == nil {
			return track, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Wrapf(lastErr, "max attempts (%d) exceeded", r.MaxAttempts)
}
