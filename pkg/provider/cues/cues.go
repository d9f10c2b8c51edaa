// Package cues defines the feedback-sound capability contract: the short
// success and failure jingles the session plays when judging an attempt.
package cues

// Cues plays feedback sounds. Both calls are fire-and-forget; cue audio is
// short enough that the engine does not wait for it before dwelling.
type Cues interface {
	// Success plays the positive feedback cue.
	Success()

	// Failure plays the try-again feedback cue.
	Failure()
}

// Nop is a Cues implementation that plays nothing. Useful for headless runs
// and as a default when no cue backend is configured.
type Nop struct{}

var _ Cues = Nop{}

func (Nop) Success() {}
func (Nop) Failure() {}
