// Package console implements a development-harness speaker that "plays"
// sentences by printing them and sleeping a fixed simulated duration per
// word. A full-sentence play populates the word-timestamp index exactly the
// way a real synthesis backend would, so the carrier-clipping cache logic is
// exercised end to end without an audio device.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/audiocache"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts"
)

// defaultWordDuration is the simulated speaking time per word.
const defaultWordDuration = 250 * time.Millisecond

// Speaker prints spoken regions to an io.Writer with simulated timing.
type Speaker struct {
	w       io.Writer
	index   audiocache.Index
	wordDur time.Duration

	mu   sync.Mutex
	stop chan struct{} // non-nil while a playback is in flight
}

var _ tts.Speaker = (*Speaker)(nil)

// Option configures a Speaker.
type Option func(*Speaker)

// WithWordDuration overrides the simulated per-word speaking time.
// Default: 250ms.
func WithWordDuration(d time.Duration) Option {
	return func(s *Speaker) {
		if d > 0 {
			s.wordDur = d
		}
	}
}

// New creates a console Speaker writing to w and recording word timing into
// index. index may be nil when cache warming is not wanted.
func New(w io.Writer, index audiocache.Index, opts ...Option) *Speaker {
	s := &Speaker{w: w, index: index, wordDur: defaultWordDuration}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PlayFull speaks the whole text and refreshes its word timing row.
func (s *Speaker) PlayFull(ctx context.Context, text string, done func(error)) {
	if s.index != nil {
		s.index.PutWordTimestamps(text, s.stamps(text))
	}
	s.speak(ctx, text, text, done)
}

// PlayUntil speaks only the prefix of text that ends at stopAt.
func (s *Speaker) PlayUntil(ctx context.Context, text string, stopAt time.Duration, done func(error)) {
	words := strings.Fields(text)
	n := int(stopAt / s.wordDur)
	if n > len(words) {
		n = len(words)
	}
	s.speak(ctx, text, strings.Join(words[:n], " "), done)
}

// PlayFrom speaks the tail of text starting at from.
func (s *Speaker) PlayFrom(ctx context.Context, text string, from time.Duration, done func(error)) {
	words := strings.Fields(text)
	n := int(from / s.wordDur)
	if n > len(words) {
		n = len(words)
	}
	s.speak(ctx, text, strings.Join(words[n:], " "), done)
}

// Stop interrupts the in-flight playback, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// speak prints region and completes after its simulated duration, or
// earlier on Stop or context cancellation.
func (s *Speaker) speak(ctx context.Context, full, region string, done func(error)) {
	if strings.TrimSpace(region) == "" {
		if done != nil {
			done(nil)
		}
		return
	}

	s.mu.Lock()
	// A new playback supersedes any previous one.
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	fmt.Fprintf(s.w, "🔊 %s\n", region)
	dur := time.Duration(len(strings.Fields(region))) * s.wordDur

	go func() {
		timer := time.NewTimer(dur)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-stop:
		case <-ctx.Done():
		}

		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
		}
		s.mu.Unlock()

		if done != nil {
			done(nil)
		}
	}()

	_ = full // the full text is only needed by backends with real clips
}

// stamps lays words out at fixed intervals, mirroring how a synthesis
// backend reports word boundaries for the cached clip.
func (s *Speaker) stamps(text string) []audiocache.WordStamp {
	words := strings.Fields(text)
	out := make([]audiocache.WordStamp, len(words))
	for i, w := range words {
		out[i] = audiocache.WordStamp{Word: w, Offset: time.Duration(i) * s.wordDur}
	}
	return out
}
