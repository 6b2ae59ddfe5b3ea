package internal

// Tracker holds the reactive state of a single goroutine.
type Tracker struct {
	tracking bool

	// the frame of the reaction currently running on this goroutine
	current *Frame

	// each nested batch increases the depth by 1
	// if depth > 0, invalidations are queued until the outermost batch is complete
	batchDepth int
	pending    []*Reaction
}

// Frame collects the reads of one reaction run.
type Frame struct {
	reaction *Reaction

	deps []capture
	seen map[*Observable]struct{}
}

// capture is one observable read, with the version that was seen.
type capture struct {
	obs     *Observable
	version uint64
}

func NewTracker() *Tracker {
	return &Tracker{
		tracking: true,
	}
}

func newFrame(r *Reaction) *Frame {
	return &Frame{
		reaction: r,
		seen:     make(map[*Observable]struct{}),
	}
}

func (f *Frame) add(o *Observable, version uint64) {
	if _, ok := f.seen[o]; ok {
		return
	}
	f.seen[o] = struct{}{}
	f.deps = append(f.deps, capture{obs: o, version: version})
}

// RunWithFrame runs fn with the given frame collecting reads.
// A nil frame runs fn detached from any enclosing reaction.
func (t *Tracker) RunWithFrame(frame *Frame, fn func()) {
	prev := t.current
	prevTracking := t.tracking

	t.current = frame
	t.tracking = true

	defer func() {
		t.current = prev
		t.tracking = prevTracking
	}()

	fn()
}

func (t *Tracker) RunUntracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}

func (t *Tracker) Track(o *Observable, version uint64) {
	if t.ShouldTrack() {
		t.current.add(o, version)
	}
}

func (t *Tracker) ShouldTrack() bool {
	return t.current != nil && t.tracking
}

// idle reports whether the tracker holds no in-flight state and can be dropped.
func (t *Tracker) idle() bool {
	return t.current == nil && t.batchDepth == 0 && len(t.pending) == 0
}
