package service

import (
	"context"
	"fmt"
	"time"

	"github.com/poolview/poolview/internal/state"
)

// WriteError is the last failed controller write, surfaced in the view so
// the page can show a banner next to the reverted control.
type WriteError struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// controlWrite is the single optimistic-update protocol every control kind
// funnels through: stage the requested value, issue exactly one write, then
// reconcile. On failure the staged value is reverted and the error surfaced;
// on success it is kept until the next poll confirms it. The policy is the
// same for power toggles, feature toggles, setpoint, mode and lights.
type controlWrite struct {
	kind  string
	key   string
	patch state.Patch
	call  func(ctx context.Context) error
}

func (s *Service) dispatch(req controlWrite) {
	s.store.Stage(req.key, req.patch)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		s.completeWrite(req)
	}()
}

func (s *Service) completeWrite(req controlWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := req.call(ctx); err != nil {
		s.store.Revert(req.key)
		s.setWriteError(req.kind, err)
		s.collector.WriteResult(req.kind, false)
		s.logger.Error().Err(err).Str("kind", req.kind).Msg("controller write failed, optimistic value reverted")
		return
	}
	s.store.Resolve(req.key)
	s.collector.WriteResult(req.kind, true)
}

// ToggleCircuit switches a circuit on or off. Body power buttons and feature
// toggles share this path; when the circuit is a body's own, the body active
// flag is staged along with the circuit state.
func (s *Service) ToggleCircuit(circuitID int, on bool) {
	desired := 0
	if on {
		desired = 1
	}
	s.dispatch(controlWrite{
		kind: "circuit",
		key:  fmt.Sprintf("circuit/%d", circuitID),
		patch: func(snap *state.Snapshot) {
			if circuit := snap.Circuit(circuitID); circuit != nil {
				circuit.State = desired
			}
			for i := range snap.Status.Bodies {
				if snap.Status.Bodies[i].CircuitID == circuitID {
					snap.Status.Bodies[i].Active = on
				}
			}
		},
		call: func(ctx context.Context) error {
			return s.client.SetCircuit(ctx, circuitID, on)
		},
	})
}

// SetHeaterSetpoint moves a body's heater target temperature. Slider drags
// and min/max jump buttons both end up here; the page funnels jump buttons
// through the slider so each user event issues exactly one write.
func (s *Service) SetHeaterSetpoint(body string, temp int) {
	s.dispatch(controlWrite{
		kind: "heater_setpoint",
		key:  "setpoint/" + body,
		patch: func(snap *state.Snapshot) {
			if b := snap.Body(body); b != nil {
				b.Heater.Setpoint.Current = temp
			}
		},
		call: func(ctx context.Context) error {
			return s.client.SetHeaterSetpoint(ctx, body, temp)
		},
	})
}

// SetHeaterMode selects a body's heater mode.
func (s *Service) SetHeaterMode(body string, mode int) {
	s.dispatch(controlWrite{
		kind: "heater_mode",
		key:  "mode/" + body,
		patch: func(snap *state.Snapshot) {
			if b := snap.Body(body); b != nil {
				b.Heater.ModeCode = mode
			}
		},
		call: func(ctx context.Context) error {
			return s.client.SetHeaterMode(ctx, body, mode)
		},
	})
}

// SetLights sends a lighting scene/color command. Any command other than
// all-off implies the lights come on.
func (s *Service) SetLights(command int) {
	on := command != LightsCmdOff
	s.dispatch(controlWrite{
		kind: "lights",
		key:  "lights",
		patch: func(snap *state.Snapshot) {
			snap.Meta.LightsOn = on
		},
		call: func(ctx context.Context) error {
			return s.client.SetLights(ctx, command)
		},
	})
}

func (s *Service) setWriteError(kind string, err error) {
	s.writeErrMu.Lock()
	s.writeErr = &WriteError{Kind: kind, Message: err.Error(), At: time.Now()}
	s.writeErrMu.Unlock()
}

func (s *Service) lastWriteError() *WriteError {
	s.writeErrMu.Lock()
	defer s.writeErrMu.Unlock()
	return s.writeErr
}

// waitWrites blocks until all in-flight control writes have reconciled.
func (s *Service) waitWrites() {
	s.writes.Wait()
}
