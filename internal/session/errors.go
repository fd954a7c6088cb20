package session

import "errors"

var (
	// ErrNotConnected is returned by Publish when the session is not Connected.
	ErrNotConnected = errors.New("session: not connected")

	// ErrTransport wraps connect, subscribe and publish failures from the
	// MQTT layer.
	ErrTransport = errors.New("session: transport error")

	// ErrClosed is delivered on an Open result channel when Close ran
	// before the connection attempt finished.
	ErrClosed = errors.New("session: closed")
)
