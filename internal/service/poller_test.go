package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/poolview/poolview/internal/state"
)

func newTestPoller(client *fakeClient, collector *testCollector) (*poller, *state.Store) {
	store := state.NewStore()
	pc := newPacer(10*time.Millisecond, false)
	p := newPoller(client, store, pc, 25*time.Second, collector, zerolog.Nop())
	return p, store
}

func TestFetchOnceSuccess(t *testing.T) {
	collector := &testCollector{}
	p, store := newTestPoller(&fakeClient{}, collector)

	before := time.Now()
	if err := p.fetchOnce(context.Background()); err != nil {
		t.Fatalf("fetchOnce: %v", err)
	}
	if len(store.Current().Status.Bodies) != 2 {
		t.Fatalf("snapshot not installed")
	}
	if store.LastSuccess().Before(before) {
		t.Fatalf("last success not advanced")
	}
	if got := collector.successes.Load(); got != 1 {
		t.Fatalf("successes counted = %d, want 1", got)
	}
	if collector.stale.Load() {
		t.Fatalf("stale gauge must clear after a successful fetch")
	}
}

func TestFetchOnceFailureLeavesStoreUntouched(t *testing.T) {
	collector := &testCollector{}
	client := &fakeClient{fetchFn: func(context.Context) (*state.Snapshot, error) {
		return nil, errors.New("connection refused")
	}}
	p, store := newTestPoller(client, collector)

	if err := p.fetchOnce(context.Background()); err == nil {
		t.Fatalf("expected fetch error")
	}
	if len(store.Current().Status.Bodies) != 0 {
		t.Fatalf("failed fetch must not install a snapshot")
	}
	if !store.LastSuccess().IsZero() {
		t.Fatalf("failed fetch must not advance last success")
	}
	if got := collector.failures.Load(); got != 1 {
		t.Fatalf("failures counted = %d, want 1", got)
	}
	if !collector.stale.Load() {
		t.Fatalf("stale gauge must be set while the store was never filled")
	}
}

func TestTickSkippedWhileFetchInFlight(t *testing.T) {
	collector := &testCollector{}
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	client := &fakeClient{fetchFn: func(context.Context) (*state.Snapshot, error) {
		once.Do(func() { close(started) })
		<-release
		return testSnapshot(), nil
	}}
	p, store := newTestPoller(client, collector)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.tick(context.Background(), time.Now())
	}()
	<-started

	// Lands while the first fetch is still blocked; must be dropped, not
	// queued behind it.
	p.tick(context.Background(), time.Now())
	if got := collector.skipped.Load(); got != 1 {
		t.Fatalf("skipped ticks counted = %d, want 1", got)
	}

	close(release)
	<-done
	if got := collector.successes.Load(); got != 1 {
		t.Fatalf("successes counted = %d, want 1", got)
	}
	if len(store.Current().Status.Bodies) != 2 {
		t.Fatalf("first fetch result not installed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p, store := newTestPoller(&fakeClient{}, &testCollector{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.run(ctx) }()

	deadline := time.After(2 * time.Second)
	for store.LastSuccess().IsZero() {
		select {
		case <-deadline:
			t.Fatalf("poll loop never produced a snapshot")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v on cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}

func TestPausedPacerStepsOnDemand(t *testing.T) {
	pc := newPacer(5*time.Millisecond, true)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Paused: no tick without an explicit step.
	if _, err := pc.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("paused Wait returned %v, want deadline exceeded", err)
	}

	pc.Step()
	got, err := pc.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait after step: %v", err)
	}
	if got.IsZero() {
		t.Fatalf("step tick carried no timestamp")
	}
}

func TestPacerModeAndIntervalStatus(t *testing.T) {
	pc := newPacer(5*time.Second, false)
	status := pc.Status()
	if status.Mode != pacerModeRun || status.IntervalMS != 5000 {
		t.Fatalf("unexpected status %+v", status)
	}

	pc.SetMode(pacerModePause)
	pc.SetInterval(250 * time.Millisecond)
	status = pc.Status()
	if status.Mode != pacerModePause || status.IntervalMS != 250 {
		t.Fatalf("unexpected status after update %+v", status)
	}
	if status.IntervalStr != "250ms" {
		t.Fatalf("interval text = %q, want 250ms", status.IntervalStr)
	}
}
