package internal

func (t *Tracker) IsBatching() bool {
	return t.batchDepth > 0
}

// Batch runs fn and delivers the invalidations it caused once the outermost batch completes.
func (t *Tracker) Batch(fn func()) {
	t.batchDepth++
	defer func() {
		t.batchDepth--
		if t.batchDepth == 0 {
			t.flush()
		}
	}()

	fn()
}

func (t *Tracker) enqueue(r *Reaction) {
	t.pending = append(t.pending, r)
}

func (t *Tracker) flush() {
	// callbacks may queue more work through nested batches
	for len(t.pending) > 0 {
		pending := t.pending
		t.pending = nil

		for _, r := range pending {
			r.deliver()
		}
	}
}

// Batch groups the observable writes made by fn on the calling goroutine.
func Batch(fn func()) {
	t, release := Acquire()
	defer release()

	t.Batch(fn)
}

// Untracked runs fn without recording reads on the current reaction.
func Untracked(fn func()) {
	t := Current()
	if t == nil || !t.ShouldTrack() {
		fn()
		return
	}

	t.RunUntracked(fn)
}
