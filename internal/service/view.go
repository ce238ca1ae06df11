package service

import (
	"sort"
	"strings"
	"time"

	"github.com/poolview/poolview/internal/state"
)

// Heater mode codes accepted by the controller.
const (
	HeaterModeOff            = 0
	HeaterModeSolar          = 1
	HeaterModeSolarPreferred = 2
	HeaterModeHeatPump       = 3
	HeaterModeNoChange       = 4
)

// Lighting command codes (scenes, constant colors and actions).
const (
	LightsCmdOff       = 0
	LightsCmdOn        = 1
	LightsCmdColorSet  = 2
	LightsCmdColorSync = 3
	LightsCmdColorSwim = 4
	LightsCmdParty     = 5
	LightsCmdRomance   = 6
	LightsCmdCaribbean = 7
	LightsCmdAmerican  = 8
	LightsCmdSunset    = 9
	LightsCmdRoyal     = 10
	LightsCmdBlue      = 13
	LightsCmdGreen     = 14
	LightsCmdRed       = 15
	LightsCmdWhite     = 16
	LightsCmdPurple    = 17
)

var bodyIcons = map[string]string{
	"pool": "swimming-pool",
	"spa":  "hot-tub",
}

// View is the complete render document served to the dashboard page.
type View struct {
	Header         HeaderView    `json:"header"`
	Bodies         []BodyView    `json:"bodies"`
	Features       *FeaturesView `json:"features,omitempty"`
	Pumps          []PumpRow     `json:"pumps"`
	Lights         *LightsView   `json:"lights,omitempty"`
	Alerts         []Alert       `json:"alerts,omitempty"`
	Pacer          pacerStatus   `json:"pacer"`
	LastWriteError *WriteError   `json:"lastWriteError,omitempty"`
}

// HeaderView drives the top bar: identity, outside temperature, status
// badges and the connection indicator.
type HeaderView struct {
	ServerName   string     `json:"serverName"`
	AirTemp      int        `json:"airTemp"`
	TempScale    string     `json:"tempScale"`
	FreezeMode   bool       `json:"freezeMode"`
	ServiceMode  bool       `json:"serviceMode"`
	CleanerDelay bool       `json:"cleanerDelay"`
	LightsOn     bool       `json:"lightsOn"`
	Connection   Connection `json:"connection"`
}

// Connection is the UI-only staleness judgement.
type Connection struct {
	Connected   bool      `json:"connected"`
	LastSuccess time.Time `json:"lastSuccess"`
	Tooltip     string    `json:"tooltip"`
}

// ToggleView is one switch bound to a circuit id.
type ToggleView struct {
	Label     string `json:"label"`
	CircuitID int    `json:"circuitId"`
	On        bool   `json:"on"`
}

// BodyView is one body-of-water card.
type BodyView struct {
	Name           string         `json:"name"`
	Title          string         `json:"title"`
	Icon           string         `json:"icon"`
	Active         bool           `json:"active"`
	WaterTemp      int            `json:"waterTemp"`
	TempScale      string         `json:"tempScale"`
	HeaterPresent  bool           `json:"heaterPresent"`
	HeaterActive   bool           `json:"heaterActive"`
	PowerCircuitID int            `json:"powerCircuitId"`
	Toggles        []ToggleView   `json:"toggles"`
	Heater         HeaterControls `json:"heater"`
}

// HeaterControls drives the setpoint slider, its jump buttons and the mode
// selector of a body card.
type HeaterControls struct {
	Min      int          `json:"min"`
	Max      int          `json:"max"`
	Current  int          `json:"current"`
	ModeCode int          `json:"modeCode"`
	Modes    []ModeOption `json:"modes"`
}

// ModeOption is one heater mode radio button.
type ModeOption struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// FeaturesView is the auxiliary-circuit card.
type FeaturesView struct {
	Toggles []ToggleView `json:"toggles"`
}

// PumpRow is one line of the pump telemetry table.
type PumpRow struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	RPM    int    `json:"rpm"`
	Watts  int    `json:"watts"`
}

// LightCommand is one lighting button.
type LightCommand struct {
	Label   string `json:"label"`
	Command int    `json:"command"`
}

// LightsView is the lighting card.
type LightsView struct {
	On      bool           `json:"on"`
	Scenes  []LightCommand `json:"scenes"`
	Colors  []LightCommand `json:"colors"`
	Actions []LightCommand `json:"actions"`
}

var (
	lightScenes = []LightCommand{
		{Label: "Party", Command: LightsCmdParty},
		{Label: "Romance", Command: LightsCmdRomance},
		{Label: "Caribbean", Command: LightsCmdCaribbean},
		{Label: "American", Command: LightsCmdAmerican},
		{Label: "Sunset", Command: LightsCmdSunset},
		{Label: "Royal", Command: LightsCmdRoyal},
	}
	lightColors = []LightCommand{
		{Label: "Blue", Command: LightsCmdBlue},
		{Label: "Green", Command: LightsCmdGreen},
		{Label: "Red", Command: LightsCmdRed},
		{Label: "White", Command: LightsCmdWhite},
		{Label: "Purple", Command: LightsCmdPurple},
	}
	lightActions = []LightCommand{
		{Label: "Set", Command: LightsCmdColorSet},
		{Label: "Sync", Command: LightsCmdColorSync},
		{Label: "Swim", Command: LightsCmdColorSwim},
	}
)

// composeView renders the snapshot into the dashboard document. Pure; every
// call recomputes presence and section applicability from scratch.
func composeView(snap *state.Snapshot, stale bool, lastSuccess time.Time) View {
	view := View{
		Header: headerView(snap, stale, lastSuccess),
		Bodies: make([]BodyView, 0, len(supportedBodies)),
		Pumps:  pumpRows(snap),
	}
	for _, name := range bodiesPresent(snap) {
		view.Bodies = append(view.Bodies, bodyView(snap, name))
	}
	if sectionNeeded(snap, interfaceFeatures) {
		view.Features = &FeaturesView{Toggles: circuitToggles(snap, interfaceFeatures, "")}
	}
	if sectionNeeded(snap, interfaceLights) {
		view.Lights = &LightsView{
			On:      snap.Meta.LightsOn,
			Scenes:  lightScenes,
			Colors:  lightColors,
			Actions: lightActions,
		}
	}
	return view
}

func headerView(snap *state.Snapshot, stale bool, lastSuccess time.Time) HeaderView {
	tooltip := "Connected to API"
	if stale {
		tooltip = "No recent data from API"
	}
	return HeaderView{
		ServerName:   snap.Meta.Server.Name,
		AirTemp:      snap.Meta.AirTemp,
		TempScale:    snap.Meta.TempScale,
		FreezeMode:   snap.Meta.FreezeMode,
		ServiceMode:  snap.Meta.ServiceMode,
		CleanerDelay: snap.Meta.CleanerDelay,
		LightsOn:     snap.Meta.LightsOn,
		Connection: Connection{
			Connected:   !stale,
			LastSuccess: lastSuccess,
			Tooltip:     tooltip,
		},
	}
}

func bodyView(snap *state.Snapshot, name string) BodyView {
	body := snap.Body(name)
	if body == nil {
		return BodyView{Name: name, Title: capitalize(name), Icon: bodyIcons[name]}
	}
	return BodyView{
		Name:           body.Name,
		Title:          capitalize(body.Name),
		Icon:           bodyIcons[body.Name],
		Active:         body.Active,
		WaterTemp:      body.WaterTemp,
		TempScale:      body.TempScale,
		HeaterPresent:  body.Heater.EquipPresent["heater"],
		HeaterActive:   body.Heater.Active,
		PowerCircuitID: body.CircuitID,
		Toggles:        circuitToggles(snap, body.InterfaceID, body.Name),
		Heater: HeaterControls{
			Min:      body.Heater.Setpoint.Min,
			Max:      body.Heater.Setpoint.Max,
			Current:  body.Heater.Setpoint.Current,
			ModeCode: body.Heater.ModeCode,
			Modes:    heaterModes(body.Heater.EquipPresent),
		},
	}
}

// circuitToggles lists the toggles of one interface group, ordered by the
// controller's display index. A circuit named like the owning body is the
// body's own power switch and is excluded from the toggle list.
func circuitToggles(snap *state.Snapshot, interfaceID int, excludeName string) []ToggleView {
	toggles := make([]ToggleView, 0, len(snap.ControllerConfig.BodyArray))
	for _, circuit := range snap.ControllerConfig.BodyArray {
		if circuit.Interface != interfaceID {
			continue
		}
		if excludeName != "" && strings.EqualFold(circuit.Name, excludeName) {
			continue
		}
		toggles = append(toggles, ToggleView{
			Label:     circuit.Name,
			CircuitID: circuit.CircuitID,
			On:        circuit.State != 0,
		})
	}
	indexes := make(map[int]int, len(toggles))
	for _, circuit := range snap.ControllerConfig.BodyArray {
		indexes[circuit.CircuitID] = circuit.NameIndex
	}
	sort.SliceStable(toggles, func(i, j int) bool {
		return indexes[toggles[i].CircuitID] < indexes[toggles[j].CircuitID]
	})
	return toggles
}

// heaterModes derives the selectable modes from the equipment-presence map.
// Keys ending in "isheater" are wiring hints, not equipment, and are
// ignored. Off is always offered.
func heaterModes(equip map[string]bool) []ModeOption {
	present := make(map[string]bool, len(equip))
	for key, ok := range equip {
		if strings.HasSuffix(key, "isheater") {
			continue
		}
		if ok {
			present[key] = true
		}
	}
	modes := []ModeOption{{Label: "Off", Value: HeaterModeOff}}
	if present["heater"] {
		modes = append(modes, ModeOption{Label: "Heater", Value: HeaterModeHeatPump})
	}
	if present["solar"] {
		modes = append(modes,
			ModeOption{Label: "Solar", Value: HeaterModeSolar},
			ModeOption{Label: "Solar Preferred", Value: HeaterModeSolarPreferred},
		)
	}
	return modes
}

func pumpRows(snap *state.Snapshot) []PumpRow {
	if len(snap.Status.Pumps) == 0 {
		return nil
	}
	names := make([]string, 0, len(snap.Status.Pumps))
	for name := range snap.Status.Pumps {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]PumpRow, 0, len(names))
	for _, name := range names {
		pump := snap.Status.Pumps[name]
		status := "Off"
		if pump.IsRunning {
			status = "Running"
		}
		rows = append(rows, PumpRow{
			Name:   name,
			Type:   pump.PumpTypeName,
			Status: status,
			RPM:    pump.PumpRPMs,
			Watts:  pump.PumpWatts,
		})
	}
	return rows
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
