package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poolview/poolview/internal/config"
)

func testConfig(base string) *config.Config {
	return &config.Config{API: config.APIConfig{BaseURL: base}}
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(&config.Config{})
	require.Error(t, err)
}

func TestFetchAllDecodesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/all", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"meta": {"server": {"name": "Pentair: AA-BB-CC"}, "airTemp": 68, "tempScale": "F", "freezeMode": false, "lightsOn": true},
			"status": {
				"bodies": [{"name": "pool", "circuitId": 505, "active": true, "waterTemp": 81, "tempScale": "F", "interfaceId": 0,
					"heater": {"active": false, "modeCode": 0, "setpoint": {"min": 40, "max": 104, "current": 80}, "equipPresent": {"heater": true}}}],
				"pumps": {"0": {"isRunning": true, "pumpTypeName": "Intelliflo VSF", "pumpRPMs": 2450, "pumpWatts": 310}}
			},
			"controllerConfig": {"bodyArray": [{"circuitId": 505, "name": "Pool", "interface": 0, "nameIndex": 0, "state": 1}]}
		}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(testConfig(srv.URL))
	require.NoError(t, err)

	snap, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Pentair: AA-BB-CC", snap.Meta.Server.Name)
	require.True(t, snap.Meta.LightsOn)
	require.Len(t, snap.Status.Bodies, 1)
	require.Equal(t, 505, snap.Status.Bodies[0].CircuitID)
	require.Equal(t, 80, snap.Status.Bodies[0].Heater.Setpoint.Current)
	require.True(t, snap.Status.Bodies[0].Heater.EquipPresent["heater"])
	require.Equal(t, 2450, snap.Status.Pumps["0"].PumpRPMs)
}

func TestFetchAllNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.FetchAll(context.Background())
	require.Error(t, err)
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	require.Equal(t, http.StatusBadGateway, callErr.Status)
	require.Equal(t, "fetch_all", callErr.Op)
}

func TestFetchAllMalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta": {"airTemp": "not a number"}}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.FetchAll(context.Background())
	require.Error(t, err)
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	require.Zero(t, callErr.Status)
	require.ErrorContains(t, callErr, "decode snapshot")
}

func TestWritePaths(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
	}))
	defer srv.Close()

	client, err := NewHTTPClient(testConfig(srv.URL + "/"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.SetCircuit(ctx, 7, true))
	require.NoError(t, client.SetCircuit(ctx, 7, false))
	require.NoError(t, client.SetHeaterMode(ctx, "spa", 3))
	require.NoError(t, client.SetHeaterSetpoint(ctx, "pool", 95))
	require.NoError(t, client.SetLights(ctx, 5))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{
		"/circuit/7/1",
		"/circuit/7/0",
		"/spa/heater/mode/3",
		"/pool/heater/setpoint/95",
		"/lights/5",
	}, paths)
}

func TestWriteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(testConfig(srv.URL))
	require.NoError(t, err)

	err = client.SetCircuit(context.Background(), 7, true)
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	require.Equal(t, http.StatusServiceUnavailable, callErr.Status)
	require.Equal(t, "set_circuit", callErr.Op)
}

func TestTimeoutYieldsCallError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	cfg := testConfig(srv.URL)
	cfg.API.Timeout = config.Duration{Duration: 20 * time.Millisecond}
	client, err := NewHTTPClient(cfg)
	require.NoError(t, err)

	_, err = client.FetchAll(context.Background())
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	require.NotNil(t, callErr.Err)
}
