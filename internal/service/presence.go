package service

import "github.com/poolview/poolview/internal/state"

// Interface ids grouping circuits under the optional UI sections.
const (
	interfaceFeatures = 2
	interfaceLights   = 3
)

// supportedBodies fixes both the candidate set and the presentation order.
var supportedBodies = []string{"pool", "spa"}

// bodiesPresent filters the supported body names to those the snapshot
// reports, preserving candidate order rather than snapshot order.
func bodiesPresent(snap *state.Snapshot) []string {
	present := make([]string, 0, len(supportedBodies))
	for _, name := range supportedBodies {
		if snap.Body(name) != nil {
			present = append(present, name)
		}
	}
	return present
}

// sectionNeeded reports whether any configured circuit belongs to the given
// interface, deciding whether the matching UI section is rendered.
func sectionNeeded(snap *state.Snapshot, interfaceID int) bool {
	if snap == nil {
		return false
	}
	for _, circuit := range snap.ControllerConfig.BodyArray {
		if circuit.Interface == interfaceID {
			return true
		}
	}
	return false
}
