package brick

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds every known brick in insertion order, one State per
// Record. Record changes are persisted through the Store; state is never
// persisted.
//
// All methods are safe for concurrent use. Failed operations leave both the
// registry and the store unchanged.
type Registry struct {
	store  Store
	logger Logger

	mu      sync.RWMutex
	devices []Device
}

// NewRegistry creates an empty registry backed by store. Call Load to read
// the saved records.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load replaces the registry contents with the stored records. Every brick
// starts disconnected and idle whatever was saved.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading bricks: %w", err)
	}

	devices := make([]Device, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("loading brick %q: %w", rec.Name, err)
		}
		if _, dup := seen[rec.Name]; dup {
			return fmt.Errorf("loading bricks: %w: %q", ErrDuplicateName, rec.Name)
		}
		seen[rec.Name] = struct{}{}
		devices = append(devices, Device{Record: rec, State: NewState()})
	}

	r.mu.Lock()
	r.devices = devices
	r.mu.Unlock()

	r.logger.Info("bricks loaded", "count", len(devices))
	return nil
}

// List returns a snapshot of all bricks in order.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.devices)
}

// Len returns the number of bricks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Get returns the brick called name, or ErrDeviceNotFound.
func (r *Registry) Get(name string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(name)
	if i < 0 {
		return Device{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}
	return r.devices[i], nil
}

// Add appends a record with a fresh disconnected state and saves the list.
//
// Returns:
//   - Device: The added brick
//   - error: ErrInvalidRecord, ErrDuplicateName, or a store error
func (r *Registry) Add(ctx context.Context, rec Record) (Device, error) {
	if err := rec.Validate(); err != nil {
		return Device{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(rec.Name) >= 0 {
		return Device{}, fmt.Errorf("%w: %q", ErrDuplicateName, rec.Name)
	}

	dev := Device{Record: rec, State: NewState()}
	next := append(slices.Clone(r.devices), dev)
	if err := r.store.Save(ctx, records(next)); err != nil {
		return Device{}, fmt.Errorf("saving bricks: %w", err)
	}
	r.devices = next

	r.logger.Info("brick added", "name", rec.Name, "controller", rec.Controller, "port", rec.Port)
	return dev, nil
}

// Remove deletes the brick and its state and saves the list. Commands
// already published for it are not recalled.
func (r *Registry) Remove(ctx context.Context, name string) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(name)
	if i < 0 {
		return Device{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}

	removed := r.devices[i]
	next := slices.Delete(slices.Clone(r.devices), i, i+1)
	if err := r.store.Save(ctx, records(next)); err != nil {
		return Device{}, fmt.Errorf("saving bricks: %w", err)
	}
	r.devices = next

	r.logger.Info("brick removed", "name", name)
	return removed, nil
}

// Apply applies t to the named brick's state.
//
// Returns:
//   - Device: The brick with its new state
//   - Outcome: Whether a command must be sent
//   - error: ErrDeviceNotFound or any error from Apply; state is unchanged
func (r *Registry) Apply(name string, t Transition) (Device, Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(name)
	if i < 0 {
		return Device{}, Outcome{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}

	out, err := Apply(r.devices[i].State, t)
	if err != nil {
		return r.devices[i], Outcome{}, err
	}
	r.devices[i].State = out.State

	r.logger.Debug("brick transition applied",
		"name", name,
		"transition", t.String(),
		"phase", out.State.Phase(),
		"dispatch", out.Dispatch,
	)
	return r.devices[i], out, nil
}

// indexOf must be called with mu held.
func (r *Registry) indexOf(name string) int {
	return slices.IndexFunc(r.devices, func(d Device) bool { return d.Name == name })
}

func records(devices []Device) []Record {
	out := make([]Record, len(devices))
	for i, d := range devices {
		out[i] = d.Record
	}
	return out
}
