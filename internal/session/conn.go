package session

import (
	"context"

	"github.com/nerrad567/brick-commander/internal/infrastructure/config"
	"github.com/nerrad567/brick-commander/internal/infrastructure/mqtt"
)

// Conn is the slice of *mqtt.Client the session uses.
type Conn interface {
	PublishNoWait(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	Close() error
}

// Dialer opens a Conn. It must return promptly once ctx is cancelled.
type Dialer func(ctx context.Context) (Conn, error)

// MQTTDialer returns a Dialer that connects with mqtt.Connect. logger may
// be nil.
func MQTTDialer(cfg config.MQTTConfig, logger mqtt.Logger) Dialer {
	return func(ctx context.Context) (Conn, error) {
		client, err := mqtt.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			client.SetLogger(logger)
		}
		return client, nil
	}
}
