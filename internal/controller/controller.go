package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/brick-commander/internal/brick"
	"github.com/nerrad567/brick-commander/internal/infrastructure/influxdb"
	"github.com/nerrad567/brick-commander/internal/session"
)

// DefaultStepDelay is the pause after each shutdown command.
const DefaultStepDelay = 200 * time.Millisecond

// Session is the transport the controller drives. *session.Session
// satisfies it.
type Session interface {
	Open(ctx context.Context) <-chan error
	Close()
	Reconnect(ctx context.Context) <-chan error
	State() session.State
	Publish(payload []byte) error
	PublishConfig(payload []byte) error
	SubscribeStatus(fn func(brick.Status)) (cancel func())
	SubscribeAvailability(fn func(brick.Availability)) (cancel func())
	OnStateChange(fn func(session.State)) (cancel func())
}

// Recorder receives telemetry for published commands and inbound gateway
// messages. *influxdb.Client satisfies it.
type Recorder interface {
	WriteCommand(s influxdb.CommandSample)
	WriteStatus(status, message string)
	WriteAvailability(availability string)
}

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Controller.
type Options struct {
	// StepDelay is the pause after each stop and disconnect command during
	// Shutdown. Zero means DefaultStepDelay; negative means no pause.
	StepDelay time.Duration

	// Recorder, if set, receives command and gateway telemetry.
	Recorder Recorder
}

// Gateway is the last known gateway condition.
type Gateway struct {
	Session      session.State      `json:"session"`
	Availability brick.Availability `json:"availability,omitempty"`
	LastStatus   *brick.Status      `json:"last_status,omitempty"`
}

// Controller is the driver API over the brick registry and transport
// session. Front ends (the HTTP API, the process entry point) call it
// instead of touching the registry or session directly.
//
// Transitions are serialised: one Apply, Add, Remove or Shutdown runs at a
// time. Inbound status messages never mutate brick state.
//
// Thread Safety: All methods are safe for concurrent use.
type Controller struct {
	registry *brick.Registry
	session  Session
	recorder Recorder
	logger   Logger
	delay    time.Duration

	// mu serialises driver operations.
	mu       sync.Mutex
	selected string

	gwMu         sync.RWMutex
	availability brick.Availability
	lastStatus   *brick.Status

	unsubscribe []func()
}

// New creates a controller. It registers listeners on sess for gateway
// tracking and telemetry; call Shutdown to release them.
func New(registry *brick.Registry, sess Session, opts Options) *Controller {
	delay := opts.StepDelay
	switch {
	case delay == 0:
		delay = DefaultStepDelay
	case delay < 0:
		delay = 0
	}

	c := &Controller{
		registry: registry,
		session:  sess,
		recorder: opts.Recorder,
		logger:   noopLogger{},
		delay:    delay,
	}

	c.unsubscribe = append(c.unsubscribe,
		sess.SubscribeStatus(c.onStatus),
		sess.SubscribeAvailability(c.onAvailability),
	)
	return c
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// ListDevices returns every brick in registry order.
func (c *Controller) ListDevices() []brick.Device {
	return c.registry.List()
}

// Device returns one brick.
func (c *Controller) Device(name string) (brick.Device, error) {
	return c.registry.Get(name)
}

// AddDevice registers and persists a new brick in the Disconnected phase.
func (c *Controller) AddDevice(ctx context.Context, rec brick.Record) (brick.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Add(ctx, rec)
}

// RemoveDevice drops a brick and its state. Commands already published are
// not recalled. Removing the selected brick clears the selection.
func (c *Controller) RemoveDevice(ctx context.Context, name string) (brick.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.registry.Remove(ctx, name)
	if err != nil {
		return brick.Device{}, err
	}
	if c.selected == name {
		c.selected = ""
	}
	return dev, nil
}

// SelectDevice marks the brick that the operator is working with.
func (c *Controller) SelectDevice(name string) (brick.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.registry.Get(name)
	if err != nil {
		return brick.Device{}, err
	}
	c.selected = name
	return dev, nil
}

// Selected returns the selected brick, or ErrNoSelection.
func (c *Controller) Selected() (brick.Device, error) {
	c.mu.Lock()
	name := c.selected
	c.mu.Unlock()

	if name == "" {
		return brick.Device{}, ErrNoSelection
	}
	return c.registry.Get(name)
}

// Apply applies a transition to the named brick and publishes the resulting
// command when the transition dispatches one.
//
// The state change is kept even if the publish fails: the caller sees the
// brick as the operator left it and the error tells them the gateway did
// not receive it. Nothing is queued or retried.
//
// Parameters:
//   - ctx: Checked before the transition is applied
//   - name: Brick name
//   - t: The transition
//
// Returns:
//   - brick.Device: The brick after the transition
//   - error: brick.ErrDeviceNotFound, brick.ErrIllegalTransition,
//     brick.ErrInvalidDirection (state unchanged), or session.ErrNotConnected /
//     session.ErrTransport (state changed, command not sent)
func (c *Controller) Apply(ctx context.Context, name string, t brick.Transition) (brick.Device, error) {
	if err := ctx.Err(); err != nil {
		return brick.Device{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.applyLocked(name, t)
}

func (c *Controller) applyLocked(name string, t brick.Transition) (brick.Device, error) {
	dev, out, err := c.registry.Apply(name, t)
	if err != nil {
		return dev, err
	}
	if !out.Dispatch {
		return dev, nil
	}

	cmd := brick.EncodeCommand(dev.Record, dev.State, out.Disconnect)
	if err := c.publish(dev.Record, t, cmd); err != nil {
		return dev, err
	}
	return dev, nil
}

func (c *Controller) publish(rec brick.Record, t brick.Transition, cmd brick.Command) error {
	payload, err := cmd.Marshal()
	if err != nil {
		return err
	}
	if err := c.session.Publish(payload); err != nil {
		c.logger.Warn("command not sent",
			"brick", rec.Name,
			"transition", t.String(),
			"error", err,
		)
		return err
	}

	c.logger.Debug("command sent", "brick", rec.Name, "transition", t.String(), "payload", string(payload))
	if c.recorder != nil {
		c.recorder.WriteCommand(influxdb.CommandSample{
			Device:     rec.Name,
			Controller: cmd.Controller,
			Transition: string(t.Kind),
			Port:       cmd.Port,
			Power:      cmd.Power,
			Direction:  string(cmd.Direction),
			Disconnect: cmd.Disconnect,
			At:         time.Now(),
		})
	}
	return nil
}

// SubscribeStatus registers fn for gateway status messages.
func (c *Controller) SubscribeStatus(fn func(brick.Status)) (cancel func()) {
	return c.session.SubscribeStatus(fn)
}

// SubscribeAvailability registers fn for gateway availability changes.
func (c *Controller) SubscribeAvailability(fn func(brick.Availability)) (cancel func()) {
	return c.session.SubscribeAvailability(fn)
}

// OnSessionState registers fn for session lifecycle changes.
func (c *Controller) OnSessionState(fn func(session.State)) (cancel func()) {
	return c.session.OnStateChange(fn)
}

// OpenSession connects to the broker in the background. See session.Open.
func (c *Controller) OpenSession(ctx context.Context) <-chan error {
	return c.session.Open(ctx)
}

// CloseSession disconnects from the broker. Brick state is left as is.
func (c *Controller) CloseSession() {
	c.session.Close()
}

// ReconnectSession closes and reopens the broker connection.
func (c *Controller) ReconnectSession(ctx context.Context) <-chan error {
	return c.session.Reconnect(ctx)
}

// Gateway returns the session state and the last gateway messages seen.
func (c *Controller) Gateway() Gateway {
	c.gwMu.RLock()
	defer c.gwMu.RUnlock()

	gw := Gateway{
		Session:      c.session.State(),
		Availability: c.availability,
	}
	if c.lastStatus != nil {
		st := *c.lastStatus
		gw.LastStatus = &st
	}
	return gw
}

// RequestGatewayStatus asks the gateway to publish its status.
func (c *Controller) RequestGatewayStatus() error {
	if err := c.session.PublishConfig(brick.EncodeStatusRequest()); err != nil {
		return fmt.Errorf("requesting gateway status: %w", err)
	}
	return nil
}

// Shutdown sends Stop then Disconnect to every brick, pausing StepDelay
// after each command, then closes the session.
//
// Bricks that were never connected still get both commands (power 0,
// forward) so the gateway releases any BLE link it holds. When the session
// is not connected no commands are sent; the bricks are only marked
// disconnected.
//
// Returns the joined publish errors, or ctx.Err() if ctx ends first. The
// session is closed in every case.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		for _, cancel := range c.unsubscribe {
			cancel()
		}
		c.unsubscribe = nil
		c.session.Close()
	}()

	devices := c.registry.List()
	online := c.session.State() == session.StateConnected
	if !online {
		c.logger.Warn("shutdown without broker connection; no commands sent", "bricks", len(devices))
	}

	var errs []error
	for _, dev := range devices {
		if online {
			if err := c.stopForShutdown(dev); err != nil {
				errs = append(errs, err)
			}
			if err := c.pause(ctx); err != nil {
				return err
			}
		}

		if _, out, err := c.registry.Apply(dev.Name, brick.Disconnect()); err != nil {
			errs = append(errs, err)
		} else if online {
			cmd := brick.EncodeCommand(dev.Record, out.State, true)
			if err := c.publish(dev.Record, brick.Disconnect(), cmd); err != nil {
				errs = append(errs, err)
			}
			if err := c.pause(ctx); err != nil {
				return err
			}
		}
	}

	c.logger.Info("shutdown commands sent", "bricks", len(devices), "errors", len(errs))
	return errors.Join(errs...)
}

// stopForShutdown stops a brick through the state machine when connected,
// and otherwise sends the stop command the state machine would produce.
func (c *Controller) stopForShutdown(dev brick.Device) error {
	if dev.State.Connected {
		_, err := c.applyLocked(dev.Name, brick.Stop())
		return err
	}
	cmd := brick.EncodeCommand(dev.Record, brick.NewState(), false)
	return c.publish(dev.Record, brick.Stop(), cmd)
}

func (c *Controller) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) onStatus(st brick.Status) {
	c.gwMu.Lock()
	c.lastStatus = &st
	c.gwMu.Unlock()

	if st.OK() {
		c.logger.Info("gateway status", "status", st.Status, "message", st.Message)
	} else {
		c.logger.Warn("gateway status", "status", st.Status, "message", st.Message)
	}
	if c.recorder != nil {
		c.recorder.WriteStatus(st.Status, st.Message)
	}
}

func (c *Controller) onAvailability(a brick.Availability) {
	c.gwMu.Lock()
	c.availability = a
	c.gwMu.Unlock()

	c.logger.Info("gateway availability", "availability", a)
	if c.recorder != nil {
		c.recorder.WriteAvailability(string(a))
	}
}
