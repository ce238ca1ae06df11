package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

type pacerMode string

const (
	pacerModeRun   pacerMode = "run"
	pacerModePause pacerMode = "pause"
)

type pacerStatus struct {
	Mode        pacerMode     `json:"mode"`
	Interval    time.Duration `json:"-"`
	IntervalMS  int64         `json:"interval_ms"`
	IntervalStr string        `json:"interval_text"`
}

// pacer drives the poll loop: a fixed-period timer while running, a manual
// step channel while paused. Pausing is also how the disabled-polling
// sentinel is implemented; Step then serves the manual refresh path.
type pacer struct {
	mu       sync.RWMutex
	mode     pacerMode
	interval time.Duration
	notify   chan struct{}
	step     chan struct{}
}

func newPacer(interval time.Duration, paused bool) *pacer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	mode := pacerModeRun
	if paused {
		mode = pacerModePause
	}
	return &pacer{
		mode:     mode,
		interval: interval,
		notify:   make(chan struct{}, 1),
		step:     make(chan struct{}, 1),
	}
}

func (p *pacer) Wait(ctx context.Context) (time.Time, error) {
	for {
		p.mu.RLock()
		mode := p.mode
		interval := p.interval
		p.mu.RUnlock()

		switch mode {
		case pacerModeRun:
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return time.Time{}, ctx.Err()
			case <-timer.C:
				return time.Now(), nil
			case <-p.notify:
				if !timer.Stop() {
					<-timer.C
				}
				continue
			}
		case pacerModePause:
			select {
			case <-ctx.Done():
				return time.Time{}, ctx.Err()
			case <-p.step:
				return time.Now(), nil
			case <-p.notify:
				continue
			}
		default:
			return time.Time{}, errors.New("unknown pacer mode")
		}
	}
}

func (p *pacer) SetMode(mode pacerMode) {
	p.mu.Lock()
	if p.mode == mode {
		p.mu.Unlock()
		return
	}
	p.mode = mode
	p.mu.Unlock()
	p.signal()
}

// Step requests one immediate tick without leaving pause mode.
func (p *pacer) Step() {
	select {
	case p.step <- struct{}{}:
	default:
	}
}

func (p *pacer) SetInterval(d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	p.mu.Lock()
	if p.interval == d {
		p.mu.Unlock()
		return
	}
	p.interval = d
	p.mu.Unlock()
	p.signal()
}

func (p *pacer) Status() pacerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pacerStatus{
		Mode:        p.mode,
		Interval:    p.interval,
		IntervalMS:  int64(p.interval / time.Millisecond),
		IntervalStr: p.interval.String(),
	}
}

func (p *pacer) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}
