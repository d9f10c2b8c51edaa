// Package console implements a development-harness recognizer that reads
// typed "spoken attempts" from an io.Reader, normally stdin.
//
// Each recognition window consumes one line. Alternate hypotheses are
// separated by "|" (mimicking an n-best list), a blank line simulates a
// window that detected no speech, and end of input is reported as a fatal
// fault so the consuming session falls back to non-interactive reading.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
)

// Recognizer creates console-backed sessions sharing one input reader.
type Recognizer struct {
	mu sync.Mutex
	br *bufio.Reader
}

var _ asr.Recognizer = (*Recognizer)(nil)

// New creates a Recognizer reading attempts from r.
func New(r io.Reader) *Recognizer {
	return &Recognizer{br: bufio.NewReader(r)}
}

// Open returns a warm console session.
func (r *Recognizer) Open(ctx context.Context, _ asr.Config) (asr.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{rec: r, events: make(chan asr.Event, 8)}, nil
}

// readLine consumes one line from the shared reader.
func (r *Recognizer) readLine() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, err := r.br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type session struct {
	rec    *Recognizer
	events chan asr.Event

	mu        sync.Mutex
	listening bool
	cancelled bool
	closed    bool
}

var _ asr.Session = (*session)(nil)

// Listen reads the next input line in the background and emits the
// corresponding result or fault.
func (s *session) Listen() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("console: session closed")
	}
	if s.listening {
		s.mu.Unlock()
		return errors.New("console: window already open")
	}
	s.listening = true
	s.cancelled = false
	s.mu.Unlock()

	s.emit(asr.Event{Kind: asr.EventReady})

	go func() {
		line, err := s.rec.readLine()

		s.mu.Lock()
		dropped := s.cancelled || s.closed
		s.listening = false
		s.mu.Unlock()
		if dropped {
			return
		}

		switch {
		case err != nil:
			s.emit(asr.Event{Kind: asr.EventFault, Fault: asr.FaultUnavailable, Err: err})
		case strings.TrimSpace(line) == "":
			s.emit(asr.Event{Kind: asr.EventFault, Fault: asr.FaultNoSpeech})
		default:
			s.emit(asr.Event{Kind: asr.EventResult, Hypotheses: splitHypotheses(line)})
		}
	}()
	return nil
}

func (s *session) Events() <-chan asr.Event { return s.events }

// Cancel marks the current window so its eventual input line is discarded.
func (s *session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listening {
		s.cancelled = true
	}
}

// Close tears down the session.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *session) emit(ev asr.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		// Consumer fell behind; dropping a console event beats blocking.
	}
}

// splitHypotheses turns "ran fast|rant fast" into an ordered n-best list.
func splitHypotheses(line string) []string {
	parts := strings.Split(line, "|")
	hyps := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			hyps = append(hyps, p)
		}
	}
	return hyps
}
