// Package mock provides a counting test double for the cues.Cues interface.
package mock

import (
	"sync"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/cues"
)

// Cues counts how many times each cue was played.
type Cues struct {
	mu        sync.Mutex
	successes int
	failures  int
}

var _ cues.Cues = (*Cues)(nil)

// Success records a success cue.
func (c *Cues) Success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successes++
}

// Failure records a failure cue.
func (c *Cues) Failure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

// Successes returns the success cue count. Thread-safe.
func (c *Cues) Successes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.successes
}

// Failures returns the failure cue count. Thread-safe.
func (c *Cues) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}
