package brick

import "errors"

// Domain errors for the brick package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, brick.ErrIllegalTransition) {
//	    // tell the operator to connect the brick first
//	}
var (
	// ErrDuplicateName is returned when adding a record whose name is taken.
	ErrDuplicateName = errors.New("brick: duplicate name")

	// ErrDeviceNotFound is returned when no record has the given name.
	ErrDeviceNotFound = errors.New("brick: not found")

	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("brick: invalid record")

	// ErrIllegalTransition is returned when a transition that needs a
	// connected brick is applied to a disconnected one. State is unchanged.
	ErrIllegalTransition = errors.New("brick: illegal transition")

	// ErrUnknownTransition is returned for a transition kind that does not exist.
	ErrUnknownTransition = errors.New("brick: unknown transition")

	// ErrInvalidDirection is returned for a direction other than forward or backward.
	ErrInvalidDirection = errors.New("brick: invalid direction")

	// ErrMalformedStatus is returned when a status payload is not a JSON
	// object with string "status" and "message" fields.
	ErrMalformedStatus = errors.New("brick: malformed status")

	// ErrMalformedAvailability is returned for an availability payload other
	// than "online" or "offline".
	ErrMalformedAvailability = errors.New("brick: malformed availability")

	// ErrInvalidStore is returned when a persisted device list cannot be read.
	ErrInvalidStore = errors.New("brick: invalid device list")
)
