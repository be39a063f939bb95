package reactive

import "sync"

// Subscription is a handle to a registered callback or any other
// releasable resource.
type Subscription interface {
	// Dispose stops all future delivery. Calling it more than once has no
	// further effect.
	Dispose()
}

// funcSubscription runs a release function exactly once.
type funcSubscription struct {
	once sync.Once
	fn   func()
}

// OnDispose returns a Subscription that runs fn the first time it is
// disposed.
func OnDispose(fn func()) Subscription {
	return &funcSubscription{fn: fn}
}

func (s *funcSubscription) Dispose() {
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
}

// Empty returns a Subscription whose Dispose does nothing.
func Empty() Subscription {
	return OnDispose(nil)
}

// Composite owns a group of subscriptions and disposes them together.
type Composite struct {
	mu       sync.Mutex
	subs     []Subscription
	disposed bool
}

// NewComposite creates a Composite holding subs.
func NewComposite(subs ...Subscription) *Composite {
	c := &Composite{}
	for _, s := range subs {
		c.Add(s)
	}
	return c
}

// Add registers s with the composite. If the composite was already
// disposed, s is disposed immediately.
func (c *Composite) Add(s Subscription) {
	if s == nil {
		return
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		s.Dispose()
		return
	}
	c.subs = append(c.subs, s)
	c.mu.Unlock()
}

// Len returns the number of subscriptions currently held.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// IsDisposed reports whether Dispose has been called.
func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Dispose releases every held subscription in the order they were added.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	// Release outside the lock: a subscription's Dispose may re-enter.
	for _, s := range subs {
		s.Dispose()
	}
}
