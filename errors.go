package sigreact

import "github.com/AnatoleLucet/sigreact/internal"

var (
	// ErrIllegalState is returned when running a destroyed reaction,
	// or a reaction that is already running.
	ErrIllegalState = internal.ErrIllegalState

	// ErrInvalidUsage reports an API used outside its contract, such as a nil computation.
	ErrInvalidUsage = internal.ErrInvalidUsage
)
