package board

import "sync"

// Listener receives every new snapshot.
type Listener func(State)

// Container owns the current board snapshot. It is safe for concurrent use:
// realtime callbacks and UI gestures may dispatch from different goroutines.
type Container struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int

	// Snapshots waiting for delivery, oldest first. Only the goroutine that
	// set delivering drains the queue.
	pending    []State
	delivering bool
}

// NewContainer returns a container holding initial.
func NewContainer(initial State) *Container {
	c := &Container{listeners: make(map[int]Listener)}
	Load{State: initial}.apply(&c.state)
	return c
}

// Snapshot returns the current state.
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies actions in order as one step. Listeners are called once,
// after the step, when at least one action changed the state. It reports
// whether the state changed.
//
// Listeners receive snapshots in Version order. When dispatches race, or a
// listener dispatches itself, the goroutine already delivering hands over
// the newer snapshots, so a Dispatch may return before its own snapshot has
// reached every listener.
func (c *Container) Dispatch(actions ...Action) bool {
	c.mu.Lock()
	next := c.state
	changed := false
	for _, a := range actions {
		if a.apply(&next) {
			changed = true
		}
	}
	if !changed {
		c.mu.Unlock()
		return false
	}
	next.Version = c.state.Version + 1
	c.state = next
	c.pending = append(c.pending, next)
	if c.delivering {
		c.mu.Unlock()
		return true
	}
	c.delivering = true
	c.deliverLocked()
	return true
}

// deliverLocked drains pending with c.mu held on entry and released on
// return.
func (c *Container) deliverLocked() {
	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		listeners := make([]Listener, 0, len(c.listeners))
		for _, l := range c.listeners {
			listeners = append(listeners, l)
		}
		c.mu.Unlock()

		for _, s := range batch {
			for _, l := range listeners {
				l(s)
			}
		}
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

// Subscribe registers l for future snapshots. The returned function removes
// it.
func (c *Container) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}
