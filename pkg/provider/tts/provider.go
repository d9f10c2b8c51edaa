// Package tts defines the playback capability contract consumed by the
// collaborative reading engine.
//
// The engine never synthesizes audio itself. It instructs a [Speaker] to
// play a whole sentence, a carrier prefix (everything up to a millisecond
// offset), or a tail starting at an offset — the offsets coming from the
// word-timestamp index that full-sentence synthesis populates as a side
// effect. Playback is asynchronous: each call returns immediately and the
// done callback fires exactly once when audio output finishes, is stopped,
// or fails to start.
//
// Implementations must be safe for concurrent use, but callers are expected
// to keep at most one playback in flight — the engine never overlaps speech
// output with an open recognition window.
package tts

import (
	"context"
	"time"
)

// Speaker plays synthesized speech for sentence text.
type Speaker interface {
	// PlayFull synthesizes and plays text in its entirety. When the backend
	// caches per-word timing, a full-sentence play refreshes that cache.
	PlayFull(ctx context.Context, text string, done func(error))

	// PlayUntil plays previously synthesized audio for text but stops
	// output at stopAt from the start of the clip. Used to play a carrier
	// prefix without re-synthesizing the sentence.
	PlayUntil(ctx context.Context, text string, stopAt time.Duration, done func(error))

	// PlayFrom plays previously synthesized audio for text starting at
	// from and running to the end of the clip. Used for correction
	// playback of a trailing phrase.
	PlayFrom(ctx context.Context, text string, from time.Duration, done func(error))

	// Stop halts any in-flight playback. The pending done callback still
	// fires (with a nil error — an interrupted playback is not a failure).
	// Stopping when nothing is playing is a no-op.
	Stop()
}
