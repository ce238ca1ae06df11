package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/poolview/poolview/internal/config"
	"github.com/poolview/poolview/internal/state"
)

// Client is the subset of controller API operations required by the service.
// Every call is a single bounded-timeout HTTP request; failures come back as
// a *CallError, never as a panic.
type Client interface {
	FetchAll(ctx context.Context) (*state.Snapshot, error)
	SetCircuit(ctx context.Context, circuitID int, on bool) error
	SetHeaterMode(ctx context.Context, body string, mode int) error
	SetHeaterSetpoint(ctx context.Context, body string, temp int) error
	SetLights(ctx context.Context, command int) error
}

// ClientFactory creates controller clients for the service.
type ClientFactory func(cfg *config.Config) (Client, error)

// NewHTTPClientFactory returns a factory producing HTTP clients.
func NewHTTPClientFactory() ClientFactory {
	return func(cfg *config.Config) (Client, error) {
		return NewHTTPClient(cfg)
	}
}

type httpClient struct {
	base string
	hc   *http.Client
}

// NewHTTPClient builds a client for the controller REST API.
func NewHTTPClient(cfg *config.Config) (Client, error) {
	if cfg == nil || cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("controller base url is required")
	}
	timeout := cfg.APITimeout()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &httpClient{
		base: strings.TrimRight(cfg.API.BaseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
	}, nil
}

func (c *httpClient) FetchAll(ctx context.Context) (*state.Snapshot, error) {
	const op = "fetch_all"
	url := c.base + "/all"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &CallError{Op: op, URL: url, Err: err}
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &CallError{Op: op, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CallError{Op: op, URL: url, Status: resp.StatusCode}
	}
	var snap state.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, &CallError{Op: op, URL: url, Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	return &snap, nil
}

func (c *httpClient) SetCircuit(ctx context.Context, circuitID int, on bool) error {
	desired := 0
	if on {
		desired = 1
	}
	return c.put(ctx, "set_circuit", fmt.Sprintf("/circuit/%d/%d", circuitID, desired))
}

func (c *httpClient) SetHeaterMode(ctx context.Context, body string, mode int) error {
	return c.put(ctx, "set_heater_mode", fmt.Sprintf("/%s/heater/mode/%d", body, mode))
}

func (c *httpClient) SetHeaterSetpoint(ctx context.Context, body string, temp int) error {
	return c.put(ctx, "set_heater_setpoint", fmt.Sprintf("/%s/heater/setpoint/%d", body, temp))
}

func (c *httpClient) SetLights(ctx context.Context, command int) error {
	return c.put(ctx, "set_lights", fmt.Sprintf("/lights/%d", command))
}

func (c *httpClient) put(ctx context.Context, op, path string) error {
	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return &CallError{Op: op, URL: url, Err: err}
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return &CallError{Op: op, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &CallError{Op: op, URL: url, Status: resp.StatusCode}
	}
	return nil
}
