package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/poolview/poolview/internal/remote"
	"github.com/poolview/poolview/internal/state"
	"github.com/poolview/poolview/telemetry"
)

// poller refreshes the store from the controller. One fetch is in flight at
// a time; a tick that lands while the previous fetch is still running is
// skipped and counted, not queued.
type poller struct {
	client    remote.Client
	store     *state.Store
	pacer     *pacer
	threshold time.Duration
	collector telemetry.Collector
	logger    zerolog.Logger
	fetching  atomic.Bool
}

func newPoller(client remote.Client, store *state.Store, pc *pacer, threshold time.Duration, collector telemetry.Collector, logger zerolog.Logger) *poller {
	return &poller{
		client:    client,
		store:     store,
		pacer:     pc,
		threshold: threshold,
		collector: collector,
		logger:    logger.With().Str("component", "poller").Logger(),
	}
}

// run executes the poll loop until the context is cancelled. Fetch failures
// never terminate the loop.
func (p *poller) run(ctx context.Context) error {
	for {
		now, err := p.pacer.Wait(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		p.tick(ctx, now)
	}
}

func (p *poller) tick(ctx context.Context, now time.Time) {
	if !p.fetching.CompareAndSwap(false, true) {
		p.collector.TickSkipped()
		p.logger.Warn().Msg("tick skipped, previous fetch still in flight")
		return
	}
	defer p.fetching.Store(false)

	start := time.Now()
	snap, err := p.client.FetchAll(ctx)
	if err != nil {
		p.collector.PollFailed()
		p.logger.Error().Err(err).Msg("poll failed")
	} else {
		p.store.Replace(snap, now)
		p.collector.PollSucceeded(time.Since(start))
		p.logger.Debug().Dur("duration", time.Since(start)).Msg("snapshot refreshed")
	}
	p.collector.SetStale(p.store.Stale(time.Now(), p.threshold))
}

// fetchOnce performs a single guarded fetch outside the schedule, used for
// the startup fetch and for the manual refresh action. The returned error is
// informational; the store is left untouched on failure.
func (p *poller) fetchOnce(ctx context.Context) error {
	if !p.fetching.CompareAndSwap(false, true) {
		p.collector.TickSkipped()
		return errors.New("fetch already in flight")
	}
	defer p.fetching.Store(false)

	start := time.Now()
	snap, err := p.client.FetchAll(ctx)
	if err != nil {
		p.collector.PollFailed()
		p.collector.SetStale(p.store.Stale(time.Now(), p.threshold))
		return err
	}
	p.store.Replace(snap, time.Now())
	p.collector.PollSucceeded(time.Since(start))
	p.collector.SetStale(false)
	return nil
}
