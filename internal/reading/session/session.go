// Package session implements the collaborative reading state machine:
// play the carrier portion of a sentence, open a listening window for the
// target span, judge the spoken attempt, and retry, escalate, or advance.
//
// The session owns a single [State] value mutated only inside its
// transition handlers. Completion callbacks — carrier done, recognizer
// events, dwell timers — post events into those handlers; every event is
// stamped with a generation counter so that cancelling or moving to a new
// sentence invalidates stale callbacks instead of racing them. Handlers
// never block: collaborator calls (playback, cues, the recognizer) run
// after the state lock is released.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TiGz/arlo-reading-app-sub000/internal/observe"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/clip"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/match"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/span"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/cues"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/textsource"
)

// maxAttempts is the consecutive-failure budget per target. The third
// failure triggers a correction playback and a fresh budget.
const maxAttempts = 3

// Default dwell durations between a judged attempt and the next transition.
const (
	defaultSuccessDwell = 1200 * time.Millisecond
	defaultFailDwell    = 900 * time.Millisecond
)

// signalBuffer is the outbound signal channel capacity. Sends never block;
// when a slow consumer falls this far behind, signals are dropped.
const signalBuffer = 64

// Recognizer RMS range mapped onto the 0..100 mic level.
const (
	rmsFloor = -2.0
	rmsCeil  = 10.0
)

var (
	// ErrClosed is returned by Begin after Close.
	ErrClosed = errors.New("session: closed")

	// ErrDisabled is returned by Begin after a fatal recognizer fault has
	// disabled collaborative mode.
	ErrDisabled = errors.New("session: collaborative mode disabled")

	// ErrNoSentence is returned by Begin when the text source is exhausted.
	ErrNoSentence = errors.New("session: no current sentence")
)

// Config holds tuning knobs for a [Session]. Zero-value fields are replaced
// with defaults.
type Config struct {
	// SuccessDwell is the pause after a successful attempt before the
	// session advances. Default: 1.2s.
	SuccessDwell time.Duration

	// FailDwell is the pause after a failed attempt before the next
	// listening window or the correction playback. Default: 900ms.
	FailDwell time.Duration

	// Language is the BCP-47 recognition language tag.
	Language string

	// AutoAdvance makes the session begin the next sentence's carrier
	// playback immediately after a success dwell. Disable for
	// single-sentence (tap-to-read) use.
	AutoAdvance bool
}

// Deps holds the collaborators for a [Session]. Source, Clipper, Matcher,
// and Recognizer are required.
type Deps struct {
	Source     textsource.Source
	Clipper    *clip.Clipper
	Matcher    *match.Matcher
	Recognizer asr.Recognizer
	Cues       cues.Cues
	Metrics    *observe.Metrics
	Config     Config
}

// Session is the collaborative reading state machine for one reader.
// All exported methods are safe for concurrent use.
type Session struct {
	cfg     Config
	src     textsource.Source
	clipper *clip.Clipper
	matcher *match.Matcher
	rec     asr.Recognizer
	cues    cues.Cues
	metrics *observe.Metrics

	mu       sync.Mutex
	state    State
	target   span.Target // extracted at Begin; published at carrier-done
	sentence textsource.Sentence
	gen      uint64 // bumped on Begin/Cancel/Close; stale events are dropped
	asrSess  asr.Session
	ctx      context.Context
	disabled bool
	closed   bool
	signals  chan Signal
}

// New creates a Session from deps. Returns an error when a required
// collaborator is missing.
func New(deps Deps) (*Session, error) {
	var missing []error
	if deps.Source == nil {
		missing = append(missing, errors.New("session: Source is required"))
	}
	if deps.Clipper == nil {
		missing = append(missing, errors.New("session: Clipper is required"))
	}
	if deps.Matcher == nil {
		missing = append(missing, errors.New("session: Matcher is required"))
	}
	if deps.Recognizer == nil {
		missing = append(missing, errors.New("session: Recognizer is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	cfg := deps.Config
	if cfg.SuccessDwell <= 0 {
		cfg.SuccessDwell = defaultSuccessDwell
	}
	if cfg.FailDwell <= 0 {
		cfg.FailDwell = defaultFailDwell
	}
	if deps.Cues == nil {
		deps.Cues = cues.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.DefaultMetrics()
	}

	s := &Session{
		cfg:     cfg,
		src:     deps.Source,
		clipper: deps.Clipper,
		matcher: deps.Matcher,
		rec:     deps.Recognizer,
		cues:    deps.Cues,
		metrics: deps.Metrics,
		signals: make(chan Signal, signalBuffer),
	}
	s.metrics.ActiveSessions.Add(context.Background(), 1)
	return s, nil
}

// Signals returns the outbound notification stream. The channel is closed
// by Close.
func (s *Session) Signals() <-chan Signal {
	return s.signals
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Disabled reports whether a fatal recognizer fault has disabled
// collaborative mode.
func (s *Session) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// Begin starts collaborative mode for the text source's current sentence:
// it cancels any in-flight sentence, pre-warms the recognizer, and starts
// carrier playback. The listening window opens when the carrier finishes.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.disabled {
		s.mu.Unlock()
		return ErrDisabled
	}
	sentence, ok := s.src.Current()
	if !ok {
		s.mu.Unlock()
		return ErrNoSentence
	}

	s.gen++
	g := s.gen
	restarted := s.state.Phase != PhaseIdle
	s.ctx = ctx
	s.sentence = sentence
	s.target = span.Extract(sentence.Text)
	s.state = State{Phase: PhaseIdle}
	s.emitLocked(SignalPhase)
	needOpen := s.asrSess == nil
	prev := s.asrSess
	s.mu.Unlock()

	// A Begin over an in-flight sentence supersedes it.
	if restarted {
		s.clipper.Stop()
		if prev != nil {
			prev.Cancel()
		}
	}

	// Pre-warm the recognizer before the carrier starts so it is ready
	// the moment the listening window opens. The warm session is reused
	// across retries and across sentences.
	if needOpen {
		sess, err := s.rec.Open(ctx, asr.Config{Language: s.cfg.Language})
		if err != nil {
			s.fatal(g, asr.FaultUnavailable, err)
			return fmt.Errorf("session: open recognizer: %w", err)
		}
		s.mu.Lock()
		if s.gen != g || s.closed {
			s.mu.Unlock()
			_ = sess.Close()
			return nil
		}
		s.asrSess = sess
		s.mu.Unlock()
		go s.pump(sess)
	}

	observe.Logger(ctx).Info("carrier playback starting",
		"sentence", sentence.Text,
		"target", s.target.Phrase,
	)
	s.clipper.PlayCarrier(ctx, sentence.Text, s.target, func(err error) {
		s.onCarrierDone(g, err)
	})
	return nil
}

// Cancel aborts the current sentence from any phase: playback stops, the
// recognizer window is cancelled (the warm session is kept), and state
// returns to Idle with target and attempts cleared. Cancelling an idle
// session is a no-op; Cancel is always idempotent.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.state = State{Phase: PhaseIdle}
	s.emitLocked(SignalPhase)
	sess := s.asrSess
	s.mu.Unlock()

	s.clipper.Stop()
	if sess != nil {
		sess.Cancel()
	}
}

// Close cancels the session, tears down the warm recognizer, and closes
// the signal stream. Safe to call more than once.
func (s *Session) Close() error {
	s.Cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sess := s.asrSess
	s.asrSess = nil
	close(s.signals)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(context.Background(), -1)
	if sess != nil {
		return sess.Close()
	}
	return nil
}

// ─── Event handlers ──────────────────────────────────────────────────────────

// onCarrierDone is transition 1: Idle → Listening. The target is published
// and a recognition window opens.
func (s *Session) onCarrierDone(g uint64, err error) {
	s.mu.Lock()
	if !s.liveLocked(g) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		// Playback trouble is not a reading failure; log and listen
		// anyway so the reader is not stranded.
		observe.Logger(s.ctx).Warn("carrier playback error", "error", err)
	}
	t := s.target
	s.state.Phase = PhaseListening
	s.state.Target = &t
	s.emitLocked(SignalTarget)
	s.emitLocked(SignalPhase)
	sess := s.asrSess
	ctx := s.ctx
	s.mu.Unlock()

	s.listen(g, ctx, sess)
}

// pump forwards recognizer events into the transition handlers. It runs
// until the recognizer session's event channel closes.
func (s *Session) pump(sess asr.Session) {
	for ev := range sess.Events() {
		switch ev.Kind {
		case asr.EventLevel:
			s.onLevel(ev.RMS)
		case asr.EventResult:
			s.onResult(ev.Hypotheses)
		case asr.EventFault:
			s.onFault(ev.Fault, ev.Err)
		case asr.EventReady, asr.EventPartial:
			// Informational only.
		}
	}
}

// onLevel maps a recognizer RMS update onto the 0..100 mic level.
func (s *Session) onLevel(rms float64) {
	level := int((rms - rmsFloor) / (rmsCeil - rmsFloor) * 100)
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Phase != PhaseListening || s.state.MicLevel == level {
		return
	}
	s.state.MicLevel = level
	s.emitLocked(SignalMicLevel)
}

// onResult is transitions 2 and 3: judge the hypotheses against the target.
func (s *Session) onResult(hypotheses []string) {
	s.mu.Lock()
	if s.closed || s.state.Phase != PhaseListening {
		s.mu.Unlock()
		return
	}
	g := s.gen
	ctx := s.ctx

	verdict := s.matcher.Match(hypotheses, s.target.Phrase)
	if verdict.Matched {
		yes := true
		s.state.Phase = PhaseFeedback
		s.state.Attempts.LastSuccess = &yes
		s.emitLocked(SignalAttempt)
		s.emitLocked(SignalPhase)
		s.mu.Unlock()

		observe.Logger(ctx).Info("attempt matched",
			"target", s.target.Phrase,
			"hypothesis", verdict.Hypothesis,
			"confidence", verdict.Confidence,
		)
		s.metrics.RecordAttempt(ctx, "match")
		s.cues.Success()
		time.AfterFunc(s.cfg.SuccessDwell, func() { s.onSuccessDwell(g) })
		return
	}
	s.mu.Unlock()

	observe.Logger(ctx).Info("attempt did not match",
		"target", s.target.Phrase,
		"hypotheses", hypotheses,
	)
	s.failAttempt(g, "no_match")
}

// onFault is the recognizer-failure path. Recoverable faults count as
// ordinary failed attempts; fatal faults disable collaborative mode.
func (s *Session) onFault(class asr.FaultClass, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	g := s.gen
	ctx := s.ctx
	listening := s.state.Phase == PhaseListening
	s.mu.Unlock()

	s.metrics.RecordRecognizerFault(ctx, class.String(), class.Recoverable())

	if !class.Recoverable() {
		s.fatal(g, class, err)
		return
	}
	if !listening {
		// A stale recoverable fault (e.g. from a cancelled window) is
		// not an attempt.
		return
	}
	observe.Logger(ctx).Debug("recoverable recognizer fault",
		"class", class.String(), "error", err)
	s.failAttempt(g, class.String())
}

// failAttempt applies transition 3 for any failed attempt, whatever its
// cause: cue, counter, and either a retry dwell or an escalation dwell.
func (s *Session) failAttempt(g uint64, outcome string) {
	s.mu.Lock()
	if !s.liveLocked(g) || s.state.Phase != PhaseListening {
		s.mu.Unlock()
		return
	}
	no := false
	s.state.Phase = PhaseFeedback
	s.state.Attempts.Count++
	s.state.Attempts.LastSuccess = &no
	escalate := s.state.Attempts.Count >= maxAttempts
	ctx := s.ctx
	s.emitLocked(SignalAttempt)
	s.emitLocked(SignalPhase)
	s.mu.Unlock()

	s.metrics.RecordAttempt(ctx, outcome)
	s.cues.Failure()
	if escalate {
		time.AfterFunc(s.cfg.FailDwell, func() { s.onEscalate(g) })
		return
	}
	time.AfterFunc(s.cfg.FailDwell, func() { s.onRetryDwell(g) })
}

// onRetryDwell reopens the listening window for the same target after a
// non-final failure.
func (s *Session) onRetryDwell(g uint64) {
	s.mu.Lock()
	if !s.liveLocked(g) {
		s.mu.Unlock()
		return
	}
	s.state.Phase = PhaseListening
	s.state.Attempts.LastSuccess = nil
	s.emitLocked(SignalPhase)
	sess := s.asrSess
	ctx := s.ctx
	s.mu.Unlock()

	s.listen(g, ctx, sess)
}

// onEscalate plays the correction after the third consecutive failure.
func (s *Session) onEscalate(g uint64) {
	s.mu.Lock()
	if !s.liveLocked(g) {
		s.mu.Unlock()
		return
	}
	sentence := s.sentence.Text
	target := s.target
	ctx := s.ctx
	s.mu.Unlock()

	observe.Logger(ctx).Info("escalating with correction playback",
		"target", target.Phrase)
	s.metrics.Escalations.Add(ctx, 1)
	s.clipper.PlayCorrection(ctx, sentence, target, func(err error) {
		s.onCorrectionDone(g, err)
	})
}

// onCorrectionDone grants a fresh attempt budget and reopens the window.
func (s *Session) onCorrectionDone(g uint64, err error) {
	s.mu.Lock()
	if !s.liveLocked(g) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		observe.Logger(s.ctx).Warn("correction playback error", "error", err)
	}
	s.state.Phase = PhaseListening
	s.state.Attempts = AttemptRecord{}
	s.emitLocked(SignalAttempt)
	s.emitLocked(SignalPhase)
	sess := s.asrSess
	ctx := s.ctx
	s.mu.Unlock()

	s.listen(g, ctx, sess)
}

// onSuccessDwell finishes transition 2: reset, clear the target, signal
// the advance, and (in play mode) begin the next sentence's carrier.
func (s *Session) onSuccessDwell(g uint64) {
	s.mu.Lock()
	if !s.liveLocked(g) {
		s.mu.Unlock()
		return
	}
	s.state = State{Phase: PhaseIdle}
	s.emitLocked(SignalTarget)
	s.emitLocked(SignalPhase)
	s.emitLocked(SignalAdvance)
	ctx := s.ctx
	auto := s.cfg.AutoAdvance
	s.mu.Unlock()

	s.metrics.Advances.Add(ctx, 1)

	if !s.src.Advance() {
		s.mu.Lock()
		if s.liveLocked(g) {
			s.emitLocked(SignalFinished)
		}
		s.mu.Unlock()
		return
	}
	if auto {
		if err := s.Begin(ctx); err != nil {
			observe.Logger(ctx).Warn("auto-advance failed", "error", err)
		}
	}
}

// ─── Internals ────────────────────────────────────────────────────────────────

// listen opens one recognition window. A Listen error is a client-side
// fault: fatal per the error taxonomy.
func (s *Session) listen(g uint64, ctx context.Context, sess asr.Session) {
	if sess == nil {
		s.fatal(g, asr.FaultClient, errors.New("session: recognizer not open"))
		return
	}
	if err := sess.Listen(); err != nil {
		s.metrics.RecordRecognizerFault(ctx, asr.FaultClient.String(), false)
		s.fatal(g, asr.FaultClient, err)
	}
}

// fatal disables collaborative mode for the rest of the session and
// reports it upward exactly once via SignalDisabled.
func (s *Session) fatal(g uint64, class asr.FaultClass, err error) {
	s.mu.Lock()
	if s.closed || s.disabled || s.gen != g {
		s.mu.Unlock()
		return
	}
	s.disabled = true
	s.gen++
	s.state = State{Phase: PhaseIdle}
	sess := s.asrSess
	s.asrSess = nil
	ctx := s.ctx
	s.emitLocked(SignalPhase)
	s.emitLocked(SignalDisabled)
	s.mu.Unlock()

	observe.Logger(ctx).Error("collaborative mode disabled",
		"class", class.String(), "error", err)
	s.clipper.Stop()
	if sess != nil {
		_ = sess.Close()
	}
}

// liveLocked reports whether an event stamped with generation g may still
// drive a transition. Callers must hold s.mu.
func (s *Session) liveLocked(g uint64) bool {
	return !s.closed && !s.disabled && s.gen == g
}

// emitLocked sends a signal without blocking; slow consumers lose signals
// rather than stalling the state machine. Callers must hold s.mu.
func (s *Session) emitLocked(kind SignalKind) {
	select {
	case s.signals <- Signal{Kind: kind, State: s.state.clone()}:
	default:
	}
}
