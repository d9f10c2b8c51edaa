// Package mock provides a test double for the tts.Speaker interface.
//
// By default every Play call records itself and completes synchronously by
// invoking done(nil) before returning, which keeps state-machine tests free
// of sleeps. Set Manual to true to hold completions and release them one at
// a time with Finish — useful for asserting what happens while audio is
// still "playing".
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts"
)

// CallKind identifies which Speaker method was invoked.
type CallKind string

const (
	CallFull  CallKind = "full"
	CallUntil CallKind = "until"
	CallFrom  CallKind = "from"
)

// PlayCall records a single Speaker invocation.
type PlayCall struct {
	// Kind is which method was called.
	Kind CallKind
	// Text is the text passed to the call.
	Text string
	// Offset is stopAt for CallUntil, from for CallFrom, zero for CallFull.
	Offset time.Duration
}

// Speaker is a mock implementation of tts.Speaker.
type Speaker struct {
	mu sync.Mutex

	// Manual, when true, defers done callbacks until Finish is called.
	Manual bool

	// PlayErr, if non-nil, is passed to every done callback.
	PlayErr error

	// Calls records every Play invocation in order.
	Calls []PlayCall

	// StopCalls counts Stop invocations.
	StopCalls int

	pending []func(error)
}

var _ tts.Speaker = (*Speaker)(nil)

// PlayFull records the call and completes it.
func (s *Speaker) PlayFull(_ context.Context, text string, done func(error)) {
	s.play(PlayCall{Kind: CallFull, Text: text}, done)
}

// PlayUntil records the call and completes it.
func (s *Speaker) PlayUntil(_ context.Context, text string, stopAt time.Duration, done func(error)) {
	s.play(PlayCall{Kind: CallUntil, Text: text, Offset: stopAt}, done)
}

// PlayFrom records the call and completes it.
func (s *Speaker) PlayFrom(_ context.Context, text string, from time.Duration, done func(error)) {
	s.play(PlayCall{Kind: CallFrom, Text: text, Offset: from}, done)
}

// Stop records the call and, in Manual mode, releases all held completions
// the way a real speaker fires done when playback is interrupted.
func (s *Speaker) Stop() {
	s.mu.Lock()
	s.StopCalls++
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, done := range pending {
		done(nil)
	}
}

// Finish releases the oldest held completion. Returns false when nothing is
// pending. Only meaningful in Manual mode.
func (s *Speaker) Finish() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	done := s.pending[0]
	s.pending = s.pending[1:]
	err := s.PlayErr
	s.mu.Unlock()

	done(err)
	return true
}

// CallsSnapshot returns a copy of the recorded calls. Thread-safe.
func (s *Speaker) CallsSnapshot() []PlayCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayCall, len(s.Calls))
	copy(out, s.Calls)
	return out
}

func (s *Speaker) play(call PlayCall, done func(error)) {
	s.mu.Lock()
	s.Calls = append(s.Calls, call)
	if s.Manual {
		s.pending = append(s.pending, done)
		s.mu.Unlock()
		return
	}
	err := s.PlayErr
	s.mu.Unlock()

	if done != nil {
		done(err)
	}
}
