package dynamics

import "errors"

var (
	// ErrZeroMass indicates a dynamic body without a finite positive mass.
	ErrZeroMass = errors.New("dynamics: dynamic body needs positive mass")

	// ErrUnknownBody indicates an ID that does not resolve to a live body.
	ErrUnknownBody = errors.New("dynamics: unknown body")

	// ErrAlreadyConnected indicates Connect on a constraint that is attached.
	ErrAlreadyConnected = errors.New("dynamics: constraint already connected")

	// ErrSameBody indicates a constraint between a body and itself.
	ErrSameBody = errors.New("dynamics: constraint needs two distinct bodies")
)
