// Package clip plays the carrier portion of a sentence — everything before
// the target span — and the correction playback used on escalation.
//
// When the word-timestamp index knows where the target's first word begins
// inside previously synthesized audio, the carrier is replayed from cache
// and cut off sample-accurately at that offset. On a cache miss the whole
// sentence is synthesized and played instead: the listener hears the target
// word spoken too, which is acceptable because full synthesis warms the
// cache for the next attempt or the next visit.
package clip

import (
	"context"
	"strings"
	"time"

	"github.com/TiGz/arlo-reading-app-sub000/internal/observe"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/span"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/audiocache"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts"
)

// Clipper drives the speaker for carrier and correction playback.
// It is stateless apart from its collaborators and safe for concurrent use,
// though the session never keeps more than one playback in flight.
type Clipper struct {
	speaker tts.Speaker
	index   audiocache.Index
	metrics *observe.Metrics
}

// Option configures a Clipper during construction.
type Option func(*Clipper)

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Clipper) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a Clipper playing through speaker and looking up word timing
// in index.
func New(speaker tts.Speaker, index audiocache.Index, opts ...Option) *Clipper {
	c := &Clipper{
		speaker: speaker,
		index:   index,
		metrics: observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PlayCarrier plays the part of sentence before target and invokes done
// exactly once when playback completes (or immediately when there is no
// carrier to play, the single-word-sentence case).
func (c *Clipper) PlayCarrier(ctx context.Context, sentence string, target span.Target, done func(error)) {
	prefix := ""
	if target.Start > 0 && target.Start <= len(sentence) {
		prefix = sentence[:target.Start]
	}
	if strings.TrimSpace(prefix) == "" {
		observe.Logger(ctx).Debug("no carrier to play", "sentence", sentence)
		done(nil)
		return
	}

	start := time.Now()
	timed := func(err error) {
		c.metrics.CarrierDuration.Record(ctx, time.Since(start).Seconds())
		done(err)
	}

	offset, hit := c.index.FindWordTimestamp(sentence, target.FirstWord())
	c.metrics.RecordCacheLookup(ctx, hit)

	if hit {
		observe.Logger(ctx).Debug("playing cached carrier",
			"stop_at_ms", offset.Milliseconds(), "target", target.Phrase)
		c.speaker.PlayUntil(ctx, sentence, offset, timed)
		return
	}

	// Degraded path: synthesize the whole sentence, which also records
	// word timing so the next visit clips from cache.
	observe.Logger(ctx).Debug("carrier cache miss, playing full sentence",
		"target", target.Phrase)
	c.speaker.PlayFull(ctx, sentence, timed)
}

// PlayCorrection plays the correct pronunciation of the target phrase,
// used after three consecutive failed attempts. With cached timing it seeks
// to the target's first word and plays to the end of the sentence;
// otherwise it synthesizes the bare phrase.
func (c *Clipper) PlayCorrection(ctx context.Context, sentence string, target span.Target, done func(error)) {
	offset, hit := c.index.FindWordTimestamp(sentence, target.FirstWord())
	c.metrics.RecordCacheLookup(ctx, hit)

	if hit {
		c.speaker.PlayFrom(ctx, sentence, offset, done)
		return
	}
	c.speaker.PlayFull(ctx, target.Phrase, done)
}

// Stop halts any in-flight playback.
func (c *Clipper) Stop() {
	c.speaker.Stop()
}
