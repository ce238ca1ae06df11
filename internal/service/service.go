package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/poolview/poolview/internal/config"
	"github.com/poolview/poolview/internal/remote"
	"github.com/poolview/poolview/internal/state"
	"github.com/poolview/poolview/telemetry"
)

// Service wires the poll loop, the state store, the control handlers and the
// dashboard server together.
type Service struct {
	cfg       *config.Config
	logger    zerolog.Logger
	client    remote.Client
	store     *state.Store
	pacer     *pacer
	poller    *poller
	rules     []*rule
	collector telemetry.Collector
	dashboard *dashboardServer

	writes       sync.WaitGroup
	writeErrMu   sync.Mutex
	writeErr     *WriteError
	writeTimeout time.Duration
}

// New builds a service from configuration and dependencies. A nil factory
// selects the HTTP controller client, a nil collector discards telemetry.
func New(cfg *config.Config, logger zerolog.Logger, factory remote.ClientFactory, collector telemetry.Collector) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}
	if factory == nil {
		factory = remote.NewHTTPClientFactory()
	}
	if collector == nil {
		collector = telemetry.Noop()
	}
	client, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	rules, err := newRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	store := state.NewStore()
	pc := newPacer(cfg.PollInterval(), cfg.PollingDisabled())
	svc := &Service{
		cfg:          cfg,
		logger:       logger,
		client:       client,
		store:        store,
		pacer:        pc,
		rules:        rules,
		collector:    collector,
		writeTimeout: cfg.APITimeout(),
	}
	svc.poller = newPoller(client, store, pc, cfg.StaleThreshold(), collector, logger)
	return svc, nil
}

// Validate performs a dry-run build of the configuration without starting
// anything: client construction and rule compilation must succeed.
func Validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}
	if _, err := remote.NewHTTPClient(cfg); err != nil {
		return err
	}
	if _, err := newRules(cfg.Rules); err != nil {
		return err
	}
	return nil
}

// Run fetches the first snapshot, then drives the poll loop until the
// context is cancelled. A failed startup fetch leaves the empty snapshot in
// place and is not fatal; rendering tolerates it.
func (s *Service) Run(ctx context.Context) error {
	if err := s.poller.fetchOnce(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("startup fetch failed, rendering empty snapshot")
	}
	return s.poller.run(ctx)
}

// Refresh performs one manual fetch outside the schedule.
func (s *Service) Refresh(ctx context.Context) error {
	return s.poller.fetchOnce(ctx)
}

// View renders the current dashboard document.
func (s *Service) View() View {
	snap := s.store.Current()
	stale := s.store.Stale(time.Now(), s.cfg.StaleThreshold())
	view := composeView(snap, stale, s.store.LastSuccess())
	view.Alerts = evaluateRules(s.rules, snap, s.logger)
	view.Pacer = s.pacer.Status()
	view.LastWriteError = s.lastWriteError()
	return view
}

// Store exposes the state store for the dashboard handlers.
func (s *Service) Store() *state.Store {
	return s.store
}

// EnableDashboard starts the web panel on the given listen address.
func (s *Service) EnableDashboard(listen string) error {
	if s == nil {
		return errors.New("service is nil")
	}
	if s.dashboard != nil {
		return errors.New("dashboard already enabled")
	}
	if listen == "" {
		listen = s.cfg.DashboardListen()
	}
	logger := s.logger.With().Str("component", "dashboard").Logger()
	server, err := newDashboardServer(listen, s, logger)
	if err != nil {
		return err
	}
	s.dashboard = server
	return nil
}

// DashboardAddress returns the bound dashboard address, if enabled.
func (s *Service) DashboardAddress() string {
	if s.dashboard == nil {
		return ""
	}
	return s.dashboard.addr()
}

// Close releases background resources and waits for in-flight control
// writes to reconcile.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if s.dashboard != nil {
		s.dashboard.close()
	}
	s.writes.Wait()
	return nil
}
