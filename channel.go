package refetch

import "sync/atomic"

// stateChannel holds the current observable state and fans publishes out to
// the registered observers. The render observer is gated by the liveness
// flag; the always observer fires on every publish, including those that
// land after disposal.
type stateChannel struct {
	current State
	render  func(State)
	always  func(State)
	live    atomic.Bool
}

func newStateChannel(render func(State)) *stateChannel {
	c := &stateChannel{render: render}
	c.live.Store(true)
	return c
}

// publish merges the mutation into the current state and notifies the
// observers with the merged snapshot. Callers serialize publishes; the
// channel itself holds no lock.
func (c *stateChannel) publish(mutate func(*State)) State {
	mutate(&c.current)
	next := c.current
	if c.render != nil && c.live.Load() {
		c.render(next)
	}
	if c.always != nil {
		c.always(next)
	}
	return next
}

func (c *stateChannel) snapshot() State {
	return c.current
}

// kill clears the liveness flag. Publishes keep reaching the always
// observer; the render observer is muted from this point on.
func (c *stateChannel) kill() {
	c.live.Store(false)
}
