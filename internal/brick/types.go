package brick

import (
	"fmt"
	"strings"
)

// Known controller types. The controller tag is forwarded to the gateway
// verbatim, so other values are accepted too.
const (
	ControllerBuWizz2    = "BuWizz2"
	ControllerLEGOHubNo4 = "LEGOHubNo4"
)

// Power limits.
const (
	MinPower = 0
	MaxPower = 100
)

// Direction is the motor rotation direction.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ParseDirection accepts "forward" or "backward" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Forward, Backward:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// ClampPower limits v to [MinPower, MaxPower].
func ClampPower(v int) int {
	return min(max(v, MinPower), MaxPower)
}

// Record is a brick's identity. Controller and MAC are opaque to this
// package and passed through to the gateway.
type Record struct {
	Name       string `json:"name"`
	Controller string `json:"controller"`
	MAC        string `json:"mac"`
	Port       int    `json:"port"`
}

// Validate checks the fields the gateway needs.
func (r Record) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(r.MAC) == "" {
		problems = append(problems, "mac is required")
	}
	if r.Port < 0 {
		problems = append(problems, fmt.Sprintf("port must be non-negative, got %d", r.Port))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(problems, "; "))
	}
	return nil
}

// Phase is the coarse state of a brick.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseIdle         Phase = "connected_idle"
	PhaseRunning      Phase = "connected_running"
)

// State is the runtime state of one brick.
//
// A disconnected brick always has Power 0 and Running false; a connected
// brick has Running == (Power > 0). Apply maintains both.
type State struct {
	Power     int       `json:"power"`
	Direction Direction `json:"direction"`
	Running   bool      `json:"running"`
	Connected bool      `json:"connected"`
}

// NewState returns the state every brick starts in: disconnected, idle,
// forward.
func NewState() State {
	return State{Direction: Forward}
}

// Phase reports which of the three phases s is in.
func (s State) Phase() Phase {
	switch {
	case !s.Connected:
		return PhaseDisconnected
	case s.Power > 0:
		return PhaseRunning
	default:
		return PhaseIdle
	}
}

// Device pairs a record with its current state.
type Device struct {
	Record
	State State `json:"state"`
}
