// Package asr defines the speech-recognition capability contract consumed by
// the collaborative reading engine.
//
// The engine never talks to a recognition backend directly. It opens a warm
// [Session] once per sentence (recognizer construction is expensive, so the
// session is opened while carrier audio is still playing) and then triggers
// one recognition window per reading attempt with [Session.Listen]. Results,
// level updates, and faults arrive on a single event channel, which keeps the
// consuming state machine on one logical event queue.
//
// Implementations must be safe for concurrent use.
package asr

import "context"

// Config describes the recognition settings for a new session.
type Config struct {
	// Language is the BCP-47 language tag for recognition (e.g. "en-US").
	// Empty lets the backend auto-detect, if supported.
	Language string

	// MaxHypotheses caps how many alternate transcriptions a single result
	// may carry. Zero means backend default.
	MaxHypotheses int
}

// Session is an open, pre-warmed recognition session. One session serves all
// attempts for a single sentence; each attempt is one Listen call.
//
// Callers must call Close when the session is no longer needed. All methods
// must be safe for concurrent use.
type Session interface {
	// Listen opens one recognition window. The outcome — a Result event or
	// a Fault event — arrives on the Events channel. Calling Listen while a
	// window is already open returns an error.
	Listen() error

	// Events returns the session's event stream. The channel is closed when
	// the session is closed.
	Events() <-chan Event

	// Cancel stops the current recognition window, if any, without tearing
	// down the session. The session stays warm for the next Listen call.
	// Cancelling when no window is open is a no-op.
	Cancel()

	// Close tears down the session and releases backend resources. The
	// Events channel is closed. Calling Close more than once is safe and
	// returns nil.
	Close() error
}

// Recognizer is the abstraction over any speech-recognition backend.
type Recognizer interface {
	// Open creates a warm [Session]. Returns an error if the backend cannot
	// be prepared (e.g. missing permission, unavailable service); such
	// errors are fatal for collaborative mode.
	Open(ctx context.Context, cfg Config) (Session, error)
}
