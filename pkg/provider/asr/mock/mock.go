// Package mock provides test doubles for the asr package interfaces.
//
// Use Recognizer to verify the caller opens sessions with the expected
// Config, and Session to script the event sequence each Listen call should
// produce.
//
// Example:
//
//	sess := mock.NewSession()
//	sess.Script(
//	    []asr.Event{{Kind: asr.EventResult, Hypotheses: []string{"ran fast"}}},
//	)
//	rec := &mock.Recognizer{Session: sess}
package mock

import (
	"context"
	"sync"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
)

// OpenCall records a single invocation of Recognizer.Open.
type OpenCall struct {
	// Ctx is the context passed to Open.
	Ctx context.Context
	// Cfg is the Config passed to Open.
	Cfg asr.Config
}

// Recognizer is a mock implementation of asr.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Session is returned by Open. If nil, Open returns a fresh empty
	// Session.
	Session asr.Session

	// OpenErr, if non-nil, is returned as the error from Open.
	OpenErr error

	// OpenCalls records every call to Open.
	OpenCalls []OpenCall
}

var _ asr.Recognizer = (*Recognizer)(nil)

// Open records the call and returns Session, OpenErr.
func (r *Recognizer) Open(ctx context.Context, cfg asr.Config) (asr.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OpenCalls = append(r.OpenCalls, OpenCall{Ctx: ctx, Cfg: cfg})
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	if r.Session != nil {
		return r.Session, nil
	}
	return NewSession(), nil
}

// Opened returns how many times Open has been called. Thread-safe.
func (r *Recognizer) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.OpenCalls)
}

// Session is a scripted implementation of asr.Session. Each Listen call
// emits EventReady followed by the next scripted turn's events. When the
// script is exhausted, Listen emits only EventReady and waits; tests may
// then push further events with Emit.
type Session struct {
	mu sync.Mutex

	events chan asr.Event
	turns  [][]asr.Event
	next   int
	closed bool

	// ListenErr, if non-nil, is returned by every Listen call.
	ListenErr error

	// ListenCalls counts Listen invocations.
	ListenCalls int

	// CancelCalls counts Cancel invocations.
	CancelCalls int

	// CloseCalls counts Close invocations.
	CloseCalls int
}

var _ asr.Session = (*Session)(nil)

// NewSession creates an empty scripted session with a generously buffered
// event channel so tests never block on emission.
func NewSession() *Session {
	return &Session{events: make(chan asr.Event, 64)}
}

// Script appends turns to the session. Each turn is the event slice emitted
// by one Listen call, after the automatic EventReady.
func (s *Session) Script(turns ...[]asr.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// Emit pushes a single event onto the stream, bypassing the script.
func (s *Session) Emit(ev asr.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}

// Listen emits EventReady and then the next scripted turn.
func (s *Session) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListenCalls++
	if s.ListenErr != nil {
		return s.ListenErr
	}
	if s.closed {
		return nil
	}
	s.events <- asr.Event{Kind: asr.EventReady}
	if s.next < len(s.turns) {
		for _, ev := range s.turns[s.next] {
			s.events <- ev
		}
		s.next++
	}
	return nil
}

// Events returns the scripted event stream.
func (s *Session) Events() <-chan asr.Event {
	return s.events
}

// Cancel records the call. The mock has no in-flight window to stop.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelCalls++
}

// Close closes the event stream. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// Closed reports whether Close has been called. Thread-safe.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
