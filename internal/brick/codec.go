package brick

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Gateway status values.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Command is the payload published on the command topic. Field names and
// order are the gateway's wire contract.
type Command struct {
	Controller string    `json:"controller"`
	MAC        string    `json:"mac"`
	Port       int       `json:"port"`
	Power      int       `json:"power"`
	Direction  Direction `json:"direction"`
	Disconnect bool      `json:"disconnect"`
}

// EncodeCommand builds the command for a brick in state s. A disconnect
// command always carries power 0 and direction forward.
func EncodeCommand(r Record, s State, disconnect bool) Command {
	cmd := Command{
		Controller: r.Controller,
		MAC:        r.MAC,
		Port:       r.Port,
		Power:      ClampPower(s.Power),
		Direction:  s.Direction,
		Disconnect: disconnect,
	}
	if disconnect {
		cmd.Power = 0
		cmd.Direction = Forward
	}
	if cmd.Direction == "" {
		cmd.Direction = Forward
	}
	return cmd
}

// Marshal returns the JSON wire form.
func (c Command) Marshal() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}
	return data, nil
}

// Status is a decoded status notification. It is informational only and
// carries no brick identity.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the gateway reported success.
func (s Status) OK() bool {
	return strings.EqualFold(s.Status, StatusOK)
}

// DecodeStatus parses a status payload. Both fields must be present and
// be strings.
func DecodeStatus(raw []byte) (Status, error) {
	var wire struct {
		Status  *string `json:"status"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Status{}, fmt.Errorf("%w: %w", ErrMalformedStatus, err)
	}
	if wire.Status == nil || wire.Message == nil {
		return Status{}, fmt.Errorf("%w: status and message are required", ErrMalformedStatus)
	}
	return Status{Status: *wire.Status, Message: *wire.Message}, nil
}

// EncodeStatusRequest returns the config-topic payload that asks the
// gateway to publish its status.
func EncodeStatusRequest() []byte {
	return []byte(`{"status":1}`)
}

// Availability is the gateway presence marker.
type Availability string

const (
	Online  Availability = "online"
	Offline Availability = "offline"
)

// ParseAvailability parses an availability payload.
func ParseAvailability(raw []byte) (Availability, error) {
	switch a := Availability(strings.ToLower(string(bytes.TrimSpace(raw)))); a {
	case Online, Offline:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrMalformedAvailability, raw)
	}
}
