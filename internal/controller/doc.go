// Package controller is the driver API for BrickCommander.
//
// A driver (the HTTP API, a CLI, an automation) lists and edits bricks,
// selects one, applies transitions, opens and closes the broker session,
// and listens for gateway status. The controller runs each transition
// through the brick state machine, encodes the resulting command and
// publishes it on the session.
//
// On exit a driver calls Shutdown, which for every brick sends a stop
// command and then a disconnect command, pausing between them so the
// gateway can process each one, and finally closes the session.
package controller
