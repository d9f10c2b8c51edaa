// Package audiocache defines the word-timestamp index contract: a cache
// mapping (sentence text, word) to the millisecond offset at which the word
// begins inside previously synthesized full-sentence audio.
//
// The index is populated as a side effect of full-sentence synthesis and is
// read-only from the reading engine's perspective: a lookup miss is never an
// error, only the trigger for the degraded full-synthesis path.
package audiocache

import "time"

// WordStamp records where a single word starts inside a sentence's cached
// audio, measured from the start of the clip.
type WordStamp struct {
	// Word is the token exactly as it appears in the sentence text.
	Word string

	// Offset is the time from the start of the cached audio at which the
	// word begins.
	Offset time.Duration
}

// Index looks up and stores per-word timing for synthesized sentences.
//
// Implementations must be safe for concurrent use.
type Index interface {
	// FindWordTimestamp returns the offset of the first occurrence of word
	// within the cached audio for sentence. ok is false when the sentence
	// has never been synthesized or the word was not timed.
	FindWordTimestamp(sentence, word string) (offset time.Duration, ok bool)

	// PutWordTimestamps replaces the timing row for sentence. Passing an
	// empty stamps slice removes the row.
	PutWordTimestamps(sentence string, stamps []WordStamp)
}
