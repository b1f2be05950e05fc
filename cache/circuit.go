package cache

import (
	"sync"
	"time"
)

// circuitState is the state of the Redis circuit.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type circuitConfig struct {
	// failureThreshold consecutive failures open the circuit.
	failureThreshold int
	// openTimeout is how long the circuit stays open before probing.
	openTimeout time.Duration
	// halfOpenMaxSuccess probes must succeed to close it again.
	halfOpenMaxSuccess int
}

// circuit keeps an unreachable Redis from adding a network round trip to
// every cache call. While open, L2 operations are skipped and reported as
// misses.
type circuit struct {
	mu  sync.Mutex
	cfg circuitConfig

	state     circuitState
	failures  int
	successes int
	probes    int // in flight while half-open
	openedAt  time.Time
	now       func() time.Time
}

func newCircuit(cfg circuitConfig) *circuit {
	return &circuit{cfg: cfg, now: time.Now}
}

func (c *circuit) current() circuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probeIfDue()
	return c.state
}

// allow reports whether an operation may reach Redis. While half-open it
// admits at most halfOpenMaxSuccess probes at a time; every admitted call
// must end in success, failure or release.
func (c *circuit) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.probeIfDue()
	switch c.state {
	case circuitClosed:
		return true
	case circuitHalfOpen:
		if c.successes+c.probes >= c.cfg.halfOpenMaxSuccess {
			return false
		}
		c.probes++
		return true
	default:
		return false
	}
}

func (c *circuit) success() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case circuitClosed:
		c.failures = 0
	case circuitHalfOpen:
		c.probes = max(c.probes-1, 0)
		c.successes++
		if c.successes >= c.cfg.halfOpenMaxSuccess {
			c.state = circuitClosed
			c.failures = 0
			c.successes = 0
			c.probes = 0
		}
	}
}

// release gives back a probe whose outcome says nothing about Redis.
func (c *circuit) release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == circuitHalfOpen {
		c.probes = max(c.probes-1, 0)
	}
}

func (c *circuit) failure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case circuitClosed:
		c.failures++
		if c.failures >= c.cfg.failureThreshold {
			c.open()
		}
	case circuitHalfOpen:
		c.open()
	}
}

// probeIfDue moves an open circuit to half-open once openTimeout elapsed.
// Must be called with c.mu held.
func (c *circuit) probeIfDue() {
	if c.state == circuitOpen && c.now().Sub(c.openedAt) >= c.cfg.openTimeout {
		c.state = circuitHalfOpen
		c.successes = 0
		c.probes = 0
	}
}

func (c *circuit) open() {
	c.state = circuitOpen
	c.openedAt = c.now()
	c.successes = 0
	c.probes = 0
}
