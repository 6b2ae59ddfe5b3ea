package internal

import "errors"

var (
	// ErrIllegalState is returned when an operation hits a reaction in a state that forbids it.
	ErrIllegalState = errors.New("sigreact: illegal reaction state")

	// ErrInvalidUsage is returned when an API is used outside of its contract.
	ErrInvalidUsage = errors.New("sigreact: invalid usage")
)
