package weather

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// maxAttempts bounds one update cycle: with a 1 s initial interval the retry
// ladder is 1 s, 2 s, 4 s, 8 s before the fifth and final attempt.
const maxAttempts = 5

// Updater periodically refreshes the current conditions and hands each
// result to the apply callback (typically the state tracker).
type Updater struct {
	client   *Client
	interval time.Duration
	apply    func(Conditions)

	// retryInterval seeds the per-cycle backoff ladder. Tests shrink it.
	retryInterval time.Duration
}

// NewUpdater builds an updater that fetches on the given interval.
func NewUpdater(client *Client, interval time.Duration, apply func(Conditions)) *Updater {
	return &Updater{
		client:        client,
		interval:      interval,
		apply:         apply,
		retryInterval: time.Second,
	}
}

// Run fetches once immediately and then on every interval tick until ctx is
// cancelled. A cycle whose every attempt fails is logged and abandoned; the
// next tick starts fresh.
func (u *Updater) Run(ctx context.Context) {
	if !u.client.Enabled() {
		log.Printf("Weather API key placeholder detected, lookups disabled")
		return
	}

	u.update(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.update(ctx)
		}
	}
}

// update runs one fetch cycle with exponential backoff between attempts.
// An open breaker aborts the cycle immediately: retrying inside the open
// window can never succeed.
func (u *Updater) update(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = u.retryInterval
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		cond, err := u.client.Current(ctx)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return backoff.Permanent(err)
			}
			log.Printf("Weather update attempt %d/%d failed: %v", attempt, maxAttempts, err)
			return err
		}

		u.apply(cond)
		log.Printf("Weather update: %s (rain: %v)", cond.Description, cond.Raining)
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))

	if err != nil {
		log.Printf("Weather update cycle abandoned: %v", err)
	}
}
