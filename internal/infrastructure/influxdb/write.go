package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementCommand      = "brick_command"
	measurementStatus       = "gateway_status"
	measurementAvailability = "gateway_availability"
)

// CommandSample describes one command sent to the gateway.
type CommandSample struct {
	Device     string
	Controller string
	Transition string
	Port       int
	Power      int
	Direction  string
	Disconnect bool
	At         time.Time
}

// WriteCommand records a published brick command. Non-blocking.
func (c *Client) WriteCommand(s CommandSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(commandPoint(c.site, s))
}

// WriteStatus records a status notification from the gateway. Non-blocking.
func (c *Client) WriteStatus(status, message string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(statusPoint(c.site, status, message, time.Now()))
}

// WriteAvailability records a gateway online/offline change. Non-blocking.
func (c *Client) WriteAvailability(availability string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(availabilityPoint(c.site, availability, time.Now()))
}

func commandPoint(site string, s CommandSample) *write.Point {
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(
		measurementCommand,
		map[string]string{
			"site":       site,
			"device":     s.Device,
			"controller": s.Controller,
			"transition": s.Transition,
		},
		map[string]interface{}{
			"port":       s.Port,
			"power":      s.Power,
			"direction":  s.Direction,
			"disconnect": s.Disconnect,
		},
		at,
	)
}

func statusPoint(site, status, message string, at time.Time) *write.Point {
	return write.NewPoint(
		measurementStatus,
		map[string]string{"site": site, "status": status},
		map[string]interface{}{"message": message},
		at,
	)
}

func availabilityPoint(site, availability string, at time.Time) *write.Point {
	online := 0
	if availability == "online" {
		online = 1
	}
	return write.NewPoint(
		measurementAvailability,
		map[string]string{"site": site},
		map[string]interface{}{"online": online},
		at,
	)
}
