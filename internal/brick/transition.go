package brick

import "fmt"

// Kind names a transition.
type Kind string

const (
	KindConnect      Kind = "connect"
	KindDisconnect   Kind = "disconnect"
	KindSetPower     Kind = "set_power"
	KindCommitPower  Kind = "commit_power"
	KindSetDirection Kind = "set_direction"
	KindStop         Kind = "stop"
	KindStart        Kind = "start"
)

// Transition is a requested state change. Build one with the constructor
// functions below.
type Transition struct {
	Kind      Kind
	Power     int
	Direction Direction
}

// Connect marks the brick connected with power 0. Direction is kept.
func Connect() Transition { return Transition{Kind: KindConnect} }

// Disconnect marks the brick disconnected and stops it.
func Disconnect() Transition { return Transition{Kind: KindDisconnect} }

// SetPower previews a power level. Nothing is sent until CommitPower.
func SetPower(v int) Transition { return Transition{Kind: KindSetPower, Power: v} }

// CommitPower sends the current power and direction.
func CommitPower() Transition { return Transition{Kind: KindCommitPower} }

// SetDirection changes direction and sends it.
func SetDirection(d Direction) Transition { return Transition{Kind: KindSetDirection, Direction: d} }

// Stop sets power to 0 and sends it.
func Stop() Transition { return Transition{Kind: KindStop} }

// Start sets a power level and sends it in one step.
func Start(v int) Transition { return Transition{Kind: KindStart, Power: v} }

// String implements fmt.Stringer.
func (t Transition) String() string {
	switch t.Kind {
	case KindSetPower, KindStart:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Power)
	case KindSetDirection:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Direction)
	default:
		return string(t.Kind)
	}
}

// RequiresConnection reports whether t is only legal on a connected brick.
func (t Transition) RequiresConnection() bool {
	return t.Kind != KindConnect && t.Kind != KindDisconnect
}

// Outcome is the result of a legal transition.
type Outcome struct {
	// State is the brick's new state.
	State State

	// Dispatch is true when a command must be sent to the gateway.
	Dispatch bool

	// Disconnect is the value of the command's disconnect flag.
	Disconnect bool
}

// Apply computes the state that results from applying t to s.
//
// Apply is pure: s is not modified and on error the caller keeps s.
//
// Returns:
//   - Outcome: New state and whether a command must be sent
//   - error: ErrIllegalTransition when t needs a connected brick and s is
//     disconnected, ErrInvalidDirection, or ErrUnknownTransition
func Apply(s State, t Transition) (Outcome, error) {
	if s.Direction == "" {
		s.Direction = Forward
	}

	switch t.Kind {
	case KindConnect, KindDisconnect, KindSetPower, KindCommitPower,
		KindSetDirection, KindStop, KindStart:
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownTransition, t.Kind)
	}

	if t.RequiresConnection() && !s.Connected {
		return Outcome{}, fmt.Errorf("%w: %s while disconnected", ErrIllegalTransition, t)
	}

	next := s
	dispatch := true
	disconnect := false

	switch t.Kind {
	case KindConnect:
		next.Connected = true
		next.Power = 0
	case KindDisconnect:
		next.Connected = false
		next.Power = 0
		disconnect = true
	case KindSetPower:
		next.Power = ClampPower(t.Power)
		dispatch = false
	case KindCommitPower:
	case KindSetDirection:
		d, err := ParseDirection(string(t.Direction))
		if err != nil {
			return Outcome{}, err
		}
		next.Direction = d
	case KindStop:
		next.Power = 0
	case KindStart:
		next.Power = ClampPower(t.Power)
	}
	next.Running = next.Connected && next.Power > 0

	return Outcome{State: next, Dispatch: dispatch, Disconnect: disconnect}, nil
}
