package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/brick-commander/internal/brick"
	"github.com/nerrad567/brick-commander/internal/infrastructure/mqtt"
)

// inboxSize buffers inbound messages between the MQTT callback and the
// receive loop.
const inboxSize = 64

// State is the session lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Logger defines the logging interface used by the Session.
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

// Options configures a Session.
type Options struct {
	Topics mqtt.Topics
	QoS    byte
}

// Session owns the connection to the broker: it publishes commands and
// turns inbound status and availability messages into listener calls.
//
// Each open connection has one receive goroutine. Messages are decoded and
// handed to listeners in arrival order on that goroutine, so listeners must
// not block for long and must not call Close or Reconnect.
//
// All methods are safe for concurrent use.
type Session struct {
	dial   Dialer
	opts   Options
	logger Logger

	mu    sync.Mutex
	state State
	cur   *run

	listenersMu  sync.RWMutex
	nextID       int
	statusFns    map[int]func(brick.Status)
	availableFns map[int]func(brick.Availability)
	stateFns     map[int]func(State)
}

// run is one connection attempt and, if it succeeds, its receive loop.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan inbound
	done   chan struct{}
	conn   Conn
}

type inbound struct {
	topic   string
	payload []byte
}

// New creates an idle session.
func New(dial Dialer, opts Options) *Session {
	return &Session{
		dial:         dial,
		opts:         opts,
		logger:       noopLogger{},
		state:        StateIdle,
		statusFns:    make(map[int]func(brick.Status)),
		availableFns: make(map[int]func(brick.Availability)),
		stateFns:     make(map[int]func(State)),
	}
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open starts connecting in the background and returns a channel that
// receives exactly one value: nil once the session is Connected and
// subscribed, or an error wrapping ErrTransport (or ErrClosed) after which
// the session is Idle again.
//
// Open while Connecting or Connected does nothing and its channel yields
// nil immediately. Open on a Disconnected session drops the lost connection
// and dials again. ctx bounds the connection attempt only.
func (s *Session) Open(ctx context.Context) <-chan error {
	result := make(chan error, 1)

	s.mu.Lock()
	if s.state == StateDisconnected {
		// Lost connection still waiting on auto-reconnect; start over.
		stale := s.detachLocked()
		s.mu.Unlock()
		stale.stop()
		s.notifyState(StateIdle)
		s.mu.Lock()
	}
	if s.state == StateConnecting || s.state == StateConnected {
		st := s.state
		s.mu.Unlock()
		s.logger.Debug("session already open", "state", st)
		result <- nil
		return result
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{
		ctx:    runCtx,
		cancel: cancel,
		inbox:  make(chan inbound, inboxSize),
		done:   make(chan struct{}),
	}
	s.cur = r
	s.state = StateConnecting
	s.mu.Unlock()

	s.notifyState(StateConnecting)
	s.logger.Info("session connecting")

	go s.serve(ctx, r, result)
	return result
}

// Close disconnects and stops the receive loop. When Close returns no
// listener is running or will run for this connection. Close on an idle
// session does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	r := s.detachLocked()
	s.mu.Unlock()

	if r == nil {
		return
	}
	r.stop()
	s.notifyState(StateIdle)
	s.logger.Info("session closed")
}

// Reconnect closes the session and opens it again.
func (s *Session) Reconnect(ctx context.Context) <-chan error {
	s.Close()
	return s.Open(ctx)
}

// Publish sends a command payload on the command topic without waiting for
// the broker. It fails with ErrNotConnected unless the session is Connected.
func (s *Session) Publish(payload []byte) error {
	return s.publish(s.opts.Topics.Command(), payload)
}

// PublishConfig sends a payload on the gateway config topic.
func (s *Session) PublishConfig(payload []byte) error {
	return s.publish(s.opts.Topics.Config(), payload)
}

func (s *Session) publish(topic string, payload []byte) error {
	s.mu.Lock()
	if s.state != StateConnected || s.cur == nil || s.cur.conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn := s.cur.conn
	s.mu.Unlock()

	if err := conn.PublishNoWait(topic, payload, s.opts.QoS, false); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			return ErrNotConnected
		}
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// SubscribeStatus registers fn for every decoded status message. The
// returned function removes it.
func (s *Session) SubscribeStatus(fn func(brick.Status)) (cancel func()) {
	return addListener(s, s.statusFns, fn)
}

// SubscribeAvailability registers fn for gateway availability changes.
func (s *Session) SubscribeAvailability(fn func(brick.Availability)) (cancel func()) {
	return addListener(s, s.availableFns, fn)
}

// OnStateChange registers fn for lifecycle changes.
func (s *Session) OnStateChange(fn func(State)) (cancel func()) {
	return addListener(s, s.stateFns, fn)
}

func addListener[T any](s *Session, m map[int]T, fn T) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	m[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(m, id)
		s.listenersMu.Unlock()
	}
}

func snapshot[T any](s *Session, m map[int]T) []T {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()

	// Map order is random; call in registration order.
	out := make([]T, 0, len(m))
	for id := 0; id < s.nextID && len(out) < len(m); id++ {
		if fn, ok := m[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// detachLocked moves the session to Idle and returns the run to stop.
func (s *Session) detachLocked() *run {
	r := s.cur
	s.cur = nil
	s.state = StateIdle
	return r
}

// stop cancels the run and waits for its goroutine to finish.
func (r *run) stop() {
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// serve connects, subscribes, then runs the receive loop until the run is
// cancelled. It owns the connection and closes it on the way out.
func (s *Session) serve(ctx context.Context, r *run, result chan<- error) {
	defer close(r.done)

	dialCtx, cancelDial := context.WithCancel(ctx)
	stopAfter := context.AfterFunc(r.ctx, cancelDial)
	conn, err := s.dial(dialCtx)
	stopAfter()
	cancelDial()

	if err != nil {
		if r.ctx.Err() != nil {
			result <- ErrClosed
			return
		}
		s.fail(r, "connect", err, result)
		return
	}
	defer s.teardown(conn)

	conn.SetOnDisconnect(func(err error) { s.connectionLost(r, err) })
	conn.SetOnConnect(func() { s.connectionRestored(r) })

	handler := func(topic string, payload []byte) error {
		select {
		case r.inbox <- inbound{topic: topic, payload: payload}:
		case <-r.ctx.Done():
		}
		return nil
	}
	for _, topic := range s.subscriptions() {
		if err := conn.Subscribe(topic, s.opts.QoS, handler); err != nil {
			s.fail(r, "subscribe", err, result)
			return
		}
	}

	s.mu.Lock()
	if s.cur != r {
		s.mu.Unlock()
		result <- ErrClosed
		return
	}
	r.conn = conn
	s.state = StateConnected
	s.mu.Unlock()

	s.notifyState(StateConnected)
	s.logger.Info("session connected", "status_topic", s.opts.Topics.Status())
	result <- nil

	for {
		select {
		case <-r.ctx.Done():
			return
		case msg := <-r.inbox:
			s.dispatch(msg)
		}
	}
}

func (s *Session) subscriptions() []string {
	return []string{s.opts.Topics.Status(), s.opts.Topics.Availability()}
}

// fail reports a connect or subscribe error and returns the session to Idle.
func (s *Session) fail(r *run, stage string, err error, result chan<- error) {
	s.mu.Lock()
	owned := s.cur == r
	if owned {
		s.detachLocked()
	}
	s.mu.Unlock()

	if !owned {
		result <- ErrClosed
		return
	}
	s.notifyState(StateIdle)
	s.logger.Warn("session "+stage+" failed", "error", err)
	result <- fmt.Errorf("%w: %s: %w", ErrTransport, stage, err)
}

func (s *Session) teardown(conn Conn) {
	for _, topic := range s.subscriptions() {
		if err := conn.Unsubscribe(topic); err != nil {
			s.logger.Debug("unsubscribe failed", "topic", topic, "error", err)
		}
	}
	if err := conn.Close(); err != nil {
		s.logger.Warn("closing MQTT connection", "error", err)
	}
}

func (s *Session) connectionLost(r *run, err error) {
	s.mu.Lock()
	changed := s.cur == r && s.state == StateConnected
	if changed {
		s.state = StateDisconnected
	}
	s.mu.Unlock()

	if changed {
		s.logger.Warn("session connection lost", "error", err)
		s.notifyState(StateDisconnected)
	}
}

func (s *Session) connectionRestored(r *run) {
	s.mu.Lock()
	changed := s.cur == r && s.state == StateDisconnected
	if changed {
		s.state = StateConnected
	}
	s.mu.Unlock()

	if changed {
		s.logger.Info("session connection restored")
		s.notifyState(StateConnected)
	}
}

// dispatch decodes one inbound message and calls the matching listeners.
func (s *Session) dispatch(msg inbound) {
	switch msg.topic {
	case s.opts.Topics.Status():
		status, err := brick.DecodeStatus(msg.payload)
		if err != nil {
			s.logger.Warn("dropping status message", "error", err, "payload", string(msg.payload))
			return
		}
		for _, fn := range snapshot(s, s.statusFns) {
			fn(status)
		}
	case s.opts.Topics.Availability():
		avail, err := brick.ParseAvailability(msg.payload)
		if err != nil {
			s.logger.Warn("dropping availability message", "error", err)
			return
		}
		for _, fn := range snapshot(s, s.availableFns) {
			fn(avail)
		}
	default:
		s.logger.Debug("ignoring message", "topic", msg.topic)
	}
}

func (s *Session) notifyState(st State) {
	for _, fn := range snapshot(s, s.stateFns) {
		fn(st)
	}
}
