package game

// Clock is the round countdown. It holds no timer of its own: the session
// feeds it one Tick per elapsed second from its Scheduler.
//
// Expiry is only evaluated by Tick. Adjust may leave the remaining time at or
// below zero; the round then ends on the next tick, not immediately.
type Clock struct {
	remaining int
	warnAt    int
	running   bool
	expired   bool
}

// TickResult describes what a single tick observed.
type TickResult struct {
	Remaining int
	// Warning is set when the tick landed exactly on the warning boundary.
	Warning bool
	// Expired is set at most once per Start.
	Expired bool
}

// NewClock returns a stopped clock that reports a warning at warnAt seconds.
func NewClock(warnAt int) *Clock {
	return &Clock{warnAt: warnAt}
}

// Start arms the countdown with durationSeconds remaining.
func (c *Clock) Start(durationSeconds int) {
	c.remaining = durationSeconds
	c.running = true
	c.expired = false
}

// Tick consumes one second. A stopped or expired clock ignores ticks.
func (c *Clock) Tick() TickResult {
	if !c.running || c.expired {
		return TickResult{Remaining: c.remaining}
	}
	c.remaining--
	res := TickResult{Remaining: c.remaining}
	if c.warnAt > 0 && c.remaining == c.warnAt {
		res.Warning = true
	}
	if c.remaining <= 0 {
		c.expired = true
		c.running = false
		res.Expired = true
	}
	return res
}

// Adjust adds deltaSeconds, which may be negative.
func (c *Clock) Adjust(deltaSeconds int) {
	c.remaining += deltaSeconds
}

// Stop disarms the countdown. Safe to call repeatedly.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Remaining() int { return c.remaining }
func (c *Clock) Running() bool  { return c.running }
func (c *Clock) Expired() bool  { return c.expired }
