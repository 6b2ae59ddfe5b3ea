package internal

import "sync"

type Observable struct {
	mu sync.RWMutex

	value any

	// incremented on every effective write, used to detect changes between a read and a commit
	version uint64

	subsHead *subscription
	subCount int
}

func NewObservable(initial any) *Observable {
	return &Observable{
		value: initial,
	}
}

// Read returns the current value, recording the read if a reaction is running on this goroutine.
func (o *Observable) Read() any {
	o.mu.RLock()
	value, version := o.value, o.version
	o.mu.RUnlock()

	if t := Current(); t != nil {
		t.Track(o, version)
	}

	return value
}

// Peek returns the current value without recording the read.
func (o *Observable) Peek() any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.value
}

func (o *Observable) Version() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.version
}

// Subscribers returns the number of live subscriptions on this observable.
func (o *Observable) Subscribers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.subCount
}

// Update computes the next value from the current one.
// Subscribers are notified, in registration order, only when fn reports a change.
// fn runs without any lock held and is called again if a concurrent write won the race.
func (o *Observable) Update(fn func(current any) (next any, changed bool)) {
	for {
		o.mu.RLock()
		current, version := o.value, o.version
		o.mu.RUnlock()

		next, changed := fn(current)

		o.mu.Lock()
		if o.version != version {
			o.mu.Unlock()
			continue
		}
		if !changed {
			o.mu.Unlock()
			return
		}

		o.value = next
		o.version++

		// copy before notifying so callbacks can subscribe or unsubscribe freely
		subs := make([]*Reaction, 0, o.subCount)
		for link := o.subsHead; link != nil; link = link.nextSub {
			subs = append(subs, link.sub)
		}
		o.mu.Unlock()

		for _, r := range subs {
			r.invalidate()
		}
		return
	}
}

func (o *Observable) subscribe(r *Reaction) *subscription {
	link := &subscription{dep: o, sub: r}

	o.mu.Lock()
	o.addSubLink(link)
	o.mu.Unlock()

	return link
}

func (o *Observable) unsubscribe(link *subscription) {
	o.mu.Lock()
	o.removeSubLink(link)
	o.mu.Unlock()
}

func (o *Observable) addSubLink(link *subscription) {
	if o.subsHead == nil {
		o.subsHead = link
		link.prevSub = link // loop to self
		link.nextSub = nil
	} else {
		tail := o.subsHead.prevSub
		tail.nextSub = link
		link.prevSub = tail
		link.nextSub = nil
		o.subsHead.prevSub = link
	}

	o.subCount++
}

func (o *Observable) removeSubLink(link *subscription) {
	if link.prevSub == nil {
		return // already detached
	}

	head := o.subsHead
	if link == head {
		o.subsHead = link.nextSub
		if o.subsHead != nil {
			o.subsHead.prevSub = link.prevSub
		}
	} else {
		link.prevSub.nextSub = link.nextSub
		if link.nextSub != nil {
			link.nextSub.prevSub = link.prevSub
		} else {
			head.prevSub = link.prevSub
		}
	}

	link.prevSub = nil
	link.nextSub = nil
	o.subCount--
}
