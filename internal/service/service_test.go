package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/poolview/poolview/internal/config"
	"github.com/poolview/poolview/internal/remote"
	"github.com/poolview/poolview/internal/state"
)

type circuitCall struct {
	id int
	on bool
}

type bodyCall struct {
	body  string
	value int
}

type fakeClient struct {
	mu            sync.Mutex
	fetchFn       func(ctx context.Context) (*state.Snapshot, error)
	writeErr      error
	circuitCalls  []circuitCall
	modeCalls     []bodyCall
	setpointCalls []bodyCall
	lightsCalls   []int
}

func (f *fakeClient) FetchAll(ctx context.Context) (*state.Snapshot, error) {
	if f.fetchFn == nil {
		return testSnapshot(), nil
	}
	return f.fetchFn(ctx)
}

func (f *fakeClient) SetCircuit(_ context.Context, circuitID int, on bool) error {
	f.mu.Lock()
	f.circuitCalls = append(f.circuitCalls, circuitCall{id: circuitID, on: on})
	f.mu.Unlock()
	return f.writeErr
}

func (f *fakeClient) SetHeaterMode(_ context.Context, body string, mode int) error {
	f.mu.Lock()
	f.modeCalls = append(f.modeCalls, bodyCall{body: body, value: mode})
	f.mu.Unlock()
	return f.writeErr
}

func (f *fakeClient) SetHeaterSetpoint(_ context.Context, body string, temp int) error {
	f.mu.Lock()
	f.setpointCalls = append(f.setpointCalls, bodyCall{body: body, value: temp})
	f.mu.Unlock()
	return f.writeErr
}

func (f *fakeClient) SetLights(_ context.Context, command int) error {
	f.mu.Lock()
	f.lightsCalls = append(f.lightsCalls, command)
	f.mu.Unlock()
	return f.writeErr
}

type testCollector struct {
	successes atomic.Int64
	failures  atomic.Int64
	skipped   atomic.Int64
	stale     atomic.Bool
	writesOK  atomic.Int64
	writesErr atomic.Int64
}

func (c *testCollector) PollSucceeded(time.Duration) { c.successes.Add(1) }
func (c *testCollector) PollFailed()                 { c.failures.Add(1) }
func (c *testCollector) TickSkipped()                { c.skipped.Add(1) }
func (c *testCollector) SetStale(stale bool)         { c.stale.Store(stale) }
func (c *testCollector) WriteResult(_ string, ok bool) {
	if ok {
		c.writesOK.Add(1)
		return
	}
	c.writesErr.Add(1)
}

func testSnapshot() *state.Snapshot {
	return &state.Snapshot{
		Meta: state.Meta{
			Server:    state.ServerInfo{Name: "Pentair: AA-BB-CC"},
			AirTemp:   68,
			TempScale: "F",
			LightsOn:  false,
		},
		Status: state.Status{
			Bodies: []state.Body{
				{
					Name:        "pool",
					CircuitID:   505,
					Active:      true,
					WaterTemp:   81,
					TempScale:   "F",
					InterfaceID: 0,
					Heater: state.Heater{
						ModeCode:     0,
						Setpoint:     state.Setpoint{Min: 40, Max: 104, Current: 80},
						EquipPresent: map[string]bool{"heater": true, "solar": true, "solarisheater": true},
					},
				},
				{
					Name:        "spa",
					CircuitID:   500,
					Active:      false,
					WaterTemp:   97,
					TempScale:   "F",
					InterfaceID: 1,
					Heater: state.Heater{
						Active:       true,
						ModeCode:     3,
						Setpoint:     state.Setpoint{Min: 40, Max: 104, Current: 99},
						EquipPresent: map[string]bool{"heater": true},
					},
				},
			},
			Pumps: map[string]state.Pump{
				"0": {IsRunning: true, PumpTypeName: "Intelliflo VSF", PumpRPMs: 2450, PumpWatts: 310},
				"1": {IsRunning: false, PumpTypeName: "Superflo", PumpRPMs: 0, PumpWatts: 0},
			},
		},
		ControllerConfig: state.ControllerConfig{
			BodyArray: []state.Circuit{
				{CircuitID: 500, Name: "Spa", Interface: 1, NameIndex: 0, State: 0},
				{CircuitID: 505, Name: "Pool", Interface: 0, NameIndex: 0, State: 1},
				{CircuitID: 7, Name: "Waterfall", Interface: 0, NameIndex: 2, State: 0},
				{CircuitID: 8, Name: "Cleaner", Interface: 0, NameIndex: 1, State: 0},
				{CircuitID: 9, Name: "Jets", Interface: 1, NameIndex: 1, State: 0},
				{CircuitID: 10, Name: "Air Blower", Interface: 2, NameIndex: 1, State: 0},
				{CircuitID: 11, Name: "Deck Lights", Interface: 2, NameIndex: 0, State: 1},
				{CircuitID: 12, Name: "Pool Light", Interface: 3, NameIndex: 0, State: 0},
			},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		API:            config.APIConfig{BaseURL: "http://controller.test/api"},
		UpdateInterval: 5,
	}
}

func newTestService(t *testing.T, client remote.Client) *Service {
	t.Helper()
	svc, err := New(testConfig(), zerolog.Nop(), func(*config.Config) (remote.Client, error) {
		return client, nil
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil, zerolog.Nop(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestValidateCompilesRules(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []config.RuleConfig{{ID: "bad", When: "((", Message: "x"}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected rule compile error")
	}
	cfg.Rules = []config.RuleConfig{{ID: "ok", When: "meta.FreezeMode", Message: "x"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRunStartupFetchFailureIsNotFatal(t *testing.T) {
	client := &fakeClient{fetchFn: func(context.Context) (*state.Snapshot, error) {
		return nil, context.DeadlineExceeded
	}}
	svc := newTestService(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("Run returned %v after cancelled context", err)
	}
	if len(svc.store.Current().Status.Bodies) != 0 {
		t.Fatalf("expected empty snapshot after failed startup fetch")
	}
}

func TestViewRendersEmptySnapshot(t *testing.T) {
	svc := newTestService(t, &fakeClient{})
	view := svc.View()
	if len(view.Bodies) != 0 {
		t.Fatalf("expected no body cards before first poll, got %d", len(view.Bodies))
	}
	if view.Features != nil || view.Lights != nil {
		t.Fatalf("expected optional sections to be omitted for the empty snapshot")
	}
	if view.Header.Connection.Connected {
		t.Fatalf("expected stale connection before first poll")
	}
}
