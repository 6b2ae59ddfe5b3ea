package reclaim

import (
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Handle is the identity of the owner of pending reactions.
// The owner keeps it reachable for as long as it is alive.
type Handle struct {
	id uuid.UUID

	mu       sync.Mutex
	cleanups map[Destroyer]runtime.Cleanup
}

func NewHandle() *Handle {
	return &Handle{id: uuid.New()}
}

func (h *Handle) ID() uuid.UUID { return h.id }

func (h *Handle) String() string { return h.id.String() }
