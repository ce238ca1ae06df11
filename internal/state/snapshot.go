package state

// Snapshot is the full state document returned by the controller's /all
// endpoint. Once handed to the Store it is treated as immutable; every
// mutation produces a fresh copy through the Store's entry points.
type Snapshot struct {
	Meta             Meta             `json:"meta"`
	Status           Status           `json:"status"`
	ControllerConfig ControllerConfig `json:"controllerConfig"`
}

// Meta carries controller-wide status flags and the outside air temperature.
type Meta struct {
	Server       ServerInfo `json:"server"`
	AirTemp      int        `json:"airTemp"`
	TempScale    string     `json:"tempScale"`
	FreezeMode   bool       `json:"freezeMode"`
	ServiceMode  bool       `json:"serviceMode"`
	CleanerDelay bool       `json:"cleanerDelay"`
	LightsOn     bool       `json:"lightsOn"`
}

// ServerInfo identifies the controller unit.
type ServerInfo struct {
	Name string `json:"name"`
}

// Status holds the live part of the document.
type Status struct {
	Bodies []Body          `json:"bodies"`
	Pumps  map[string]Pump `json:"pumps"`
}

// Body is a body of water (pool or spa) with its heater.
type Body struct {
	Name        string `json:"name"`
	CircuitID   int    `json:"circuitId"`
	Active      bool   `json:"active"`
	WaterTemp   int    `json:"waterTemp"`
	TempScale   string `json:"tempScale"`
	InterfaceID int    `json:"interfaceId"`
	Heater      Heater `json:"heater"`
}

// Heater is the heater attached to a body.
type Heater struct {
	Active       bool            `json:"active"`
	ModeCode     int             `json:"modeCode"`
	Setpoint     Setpoint        `json:"setpoint"`
	EquipPresent map[string]bool `json:"equipPresent"`
}

// Setpoint is the heater target temperature and its configured bounds.
type Setpoint struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Current int `json:"current"`
}

// ControllerConfig holds the circuit catalogue.
type ControllerConfig struct {
	BodyArray []Circuit `json:"bodyArray"`
}

// Circuit is a switched load addressable by its stable circuit id. The
// Interface field groups circuits under a body, the features UI or the
// lights UI; NameIndex is the display order within a group.
type Circuit struct {
	CircuitID int    `json:"circuitId"`
	Name      string `json:"name"`
	Interface int    `json:"interface"`
	NameIndex int    `json:"nameIndex"`
	State     int    `json:"state"`
}

// Pump is one pump's telemetry.
type Pump struct {
	IsRunning    bool   `json:"isRunning"`
	PumpTypeName string `json:"pumpTypeName"`
	PumpRPMs     int    `json:"pumpRPMs"`
	PumpWatts    int    `json:"pumpWatts"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := *s
	if s.Status.Bodies != nil {
		out.Status.Bodies = make([]Body, len(s.Status.Bodies))
		for i, body := range s.Status.Bodies {
			out.Status.Bodies[i] = body
			if body.Heater.EquipPresent != nil {
				equip := make(map[string]bool, len(body.Heater.EquipPresent))
				for k, v := range body.Heater.EquipPresent {
					equip[k] = v
				}
				out.Status.Bodies[i].Heater.EquipPresent = equip
			}
		}
	}
	if s.Status.Pumps != nil {
		pumps := make(map[string]Pump, len(s.Status.Pumps))
		for k, v := range s.Status.Pumps {
			pumps[k] = v
		}
		out.Status.Pumps = pumps
	}
	if s.ControllerConfig.BodyArray != nil {
		out.ControllerConfig.BodyArray = make([]Circuit, len(s.ControllerConfig.BodyArray))
		copy(out.ControllerConfig.BodyArray, s.ControllerConfig.BodyArray)
	}
	return &out
}

// Body returns the body with the given name, or nil.
func (s *Snapshot) Body(name string) *Body {
	if s == nil {
		return nil
	}
	for i := range s.Status.Bodies {
		if s.Status.Bodies[i].Name == name {
			return &s.Status.Bodies[i]
		}
	}
	return nil
}

// Circuit returns the circuit with the given id, or nil.
func (s *Snapshot) Circuit(id int) *Circuit {
	if s == nil {
		return nil
	}
	for i := range s.ControllerConfig.BodyArray {
		if s.ControllerConfig.BodyArray[i].CircuitID == id {
			return &s.ControllerConfig.BodyArray[i]
		}
	}
	return nil
}
