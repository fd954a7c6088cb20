package controller

import "errors"

// Sentinel errors for controller operations.
var (
	// ErrNoSelection is returned when an operation needs a selected brick
	// and none is selected.
	ErrNoSelection = errors.New("controller: no brick selected")
)
