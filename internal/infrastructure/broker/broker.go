// Package broker runs an in-process MQTT broker for development setups and tests.
//
// Production deployments talk to the broker the gateway firmware already uses
// (typically Mosquitto). The embedded broker lets the controller run on a
// laptop with no broker installed, and gives the MQTT and session tests a real
// broker without external services:
//
//	b, err := broker.Start(broker.Options{Address: "127.0.0.1:0"})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//	fmt.Println(b.Host(), b.Port())
package broker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// listenerID names the single TCP listener.
const listenerID = "tcp"

// ErrStartFailed is returned when the broker cannot bind or serve.
var ErrStartFailed = errors.New("broker: start failed")

// Options configures the embedded broker.
type Options struct {
	// Address is host:port to listen on. A port of 0 picks a free port.
	Address string

	// Logger receives mochi's own log output. Nil discards it.
	Logger *slog.Logger
}

// Embedded is a running in-process broker.
type Embedded struct {
	server *mochi.Server
	addr   string

	closeOnce sync.Once
	closeErr  error
}

// Start binds the listener and starts serving. All clients are allowed;
// the embedded broker is for local use only.
func Start(opts Options) (*Embedded, error) {
	addr, err := resolveAddress(opts.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       logger,
	})

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("%w: adding auth hook: %w", ErrStartFailed, err)
	}

	tcp := listeners.NewTCP(listeners.Config{ID: listenerID, Address: addr})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("%w: listening on %s: %w", ErrStartFailed, addr, err)
	}

	if err := server.Serve(); err != nil {
		server.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	return &Embedded{server: server, addr: addr}, nil
}

// Addr returns the host:port the broker listens on.
func (e *Embedded) Addr() string {
	return e.addr
}

// Host returns the listen host.
func (e *Embedded) Host() string {
	host, _, _ := net.SplitHostPort(e.addr) //nolint:errcheck // addr was produced by resolveAddress
	return host
}

// Port returns the listen port.
func (e *Embedded) Port() int {
	_, port, _ := net.SplitHostPort(e.addr) //nolint:errcheck // addr was produced by resolveAddress
	p, _ := strconv.Atoi(port)              //nolint:errcheck // ditto
	return p
}

// Publish injects a message as if a client had published it. Used to
// simulate the gateway firmware.
func (e *Embedded) Publish(topic string, payload []byte, retain bool) error {
	if err := e.server.Publish(topic, payload, retain, 0); err != nil {
		return fmt.Errorf("broker: publish to %s: %w", topic, err)
	}
	return nil
}

// Close stops the broker and disconnects all clients. Repeated calls
// return the first result.
func (e *Embedded) Close() error {
	if e == nil || e.server == nil {
		return nil
	}
	e.closeOnce.Do(func() {
		e.closeErr = e.server.Close()
	})
	return e.closeErr
}

// resolveAddress replaces a zero port with a free one so callers can learn
// the real address before clients connect.
func resolveAddress(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if port != "0" {
		return addr, nil
	}

	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return "", fmt.Errorf("finding free port: %w", err)
	}
	resolved := l.Addr().String()
	if err := l.Close(); err != nil {
		return "", fmt.Errorf("releasing probe listener: %w", err)
	}
	return resolved, nil
}
