package feed

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Retry bounds the delay between subscription attempts.
type Retry struct {
	Initial time.Duration
	Max     time.Duration
}

// Follow keeps a subscription to url alive until ctx ends. Whenever the feed
// closes or fails it resubscribes after an exponentially growing delay, which
// resets once an attempt delivers a payload. onConnect, if non-nil, runs once
// per attempt just before its first payload reaches handler.
//
// Precondition: retry.Initial > 0, retry.Max >= retry.Initial, logger and
// handler must be non-nil.
// Postcondition: returns nil once ctx is done.
func Follow(ctx context.Context, url string, retry Retry, logger *zap.Logger, onConnect func(), handler func(payload []byte)) error {
	if retry.Initial <= 0 || retry.Max < retry.Initial {
		panic("feed.Follow: retry.Initial must be > 0 and <= retry.Max")
	}
	if logger == nil || handler == nil {
		panic("feed.Follow: logger and handler must not be nil")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retry.Initial
	b.MaxInterval = retry.Max
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 1; ; attempt++ {
		delivered := false
		err := Subscribe(ctx, url, func(payload []byte) {
			if !delivered {
				delivered = true
				logger.Info("feed connected", zap.String("url", url), zap.Int("attempt", attempt))
				if onConnect != nil {
					onConnect()
				}
			}
			handler(payload)
		})
		if ctx.Err() != nil {
			return nil
		}
		if delivered {
			b.Reset()
		}

		wait := b.NextBackOff()
		logger.Warn("feed subscription ended, resubscribing",
			zap.String("url", url),
			zap.Error(err),
			zap.Duration("retry_in", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
