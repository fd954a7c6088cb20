package mqtt

import (
	"github.com/nerrad567/brick-commander/internal/infrastructure/config"
)

// Default topic layout shared with the gateway firmware.
const (
	DefaultTopicBase    = "brickcommander"
	DefaultCommand      = "command"
	DefaultStatus       = "status"
	DefaultAvailability = "availability"
	DefaultConfig       = "config"
)

// Topics builds BrickCommander MQTT topics from the configured layout.
//
//	topics := mqtt.NewTopics(cfg.MQTT.Topics)
//	topics.Command() // "brickcommander/command"
type Topics struct {
	base         string
	command      string
	status       string
	availability string
	config       string
}

// NewTopics returns a Topics builder. Empty fields fall back to the defaults.
func NewTopics(cfg config.MQTTTopicsConfig) Topics {
	return Topics{
		base:         orDefault(cfg.Base, DefaultTopicBase),
		command:      orDefault(cfg.Command, DefaultCommand),
		status:       orDefault(cfg.Status, DefaultStatus),
		availability: orDefault(cfg.Availability, DefaultAvailability),
		config:       orDefault(cfg.Config, DefaultConfig),
	}
}

// Command is where brick commands are published.
//
// Example: brickcommander/command
func (t Topics) Command() string { return t.join(t.command) }

// Status is where the gateway reports command outcomes.
//
// Example: brickcommander/status
func (t Topics) Status() string { return t.join(t.status) }

// Availability carries the gateway's online/offline marker.
//
// Example: brickcommander/availability
func (t Topics) Availability() string { return t.join(t.availability) }

// Config accepts gateway configuration requests such as a status poll.
//
// Example: brickcommander/config
func (t Topics) Config() string { return t.join(t.config) }

// All matches every topic below the base.
//
// Example: brickcommander/#
func (t Topics) All() string { return t.join("#") }

func (t Topics) join(suffix string) string {
	return t.base + "/" + suffix
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
