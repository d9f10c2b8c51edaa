package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/clip"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/match"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/session"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/audiocache"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
	asrmock "github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr/mock"
	cuemock "github.com/TiGz/arlo-reading-app-sub000/pkg/provider/cues/mock"
	ttsmock "github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts/mock"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/textsource"
)

const waitTimeout = 2 * time.Second

// harness wires a session to scripted mocks with short dwells so tests run
// without real waiting.
type harness struct {
	src     *textsource.Slice
	speaker *ttsmock.Speaker
	asrSess *asrmock.Session
	rec     *asrmock.Recognizer
	cues    *cuemock.Cues
	sess    *session.Session
}

func newHarness(t *testing.T, texts []string, cfg session.Config) *harness {
	t.Helper()

	h := &harness{
		src:     textsource.FromStrings(texts),
		speaker: &ttsmock.Speaker{},
		asrSess: asrmock.NewSession(),
		cues:    &cuemock.Cues{},
	}
	h.rec = &asrmock.Recognizer{Session: h.asrSess}

	if cfg.SuccessDwell == 0 {
		cfg.SuccessDwell = 5 * time.Millisecond
	}
	if cfg.FailDwell == 0 {
		cfg.FailDwell = 5 * time.Millisecond
	}

	s, err := session.New(session.Deps{
		Source:     h.src,
		Clipper:    clip.New(h.speaker, audiocache.NewMemory(0)),
		Matcher:    match.New(),
		Recognizer: h.rec,
		Cues:       h.cues,
		Config:     cfg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.sess = s
	t.Cleanup(func() { _ = s.Close() })
	return h
}

// nextSignal consumes the signal stream until a signal of the given kind
// satisfies pred (pred may be nil).
func nextSignal(t *testing.T, ch <-chan session.Signal, kind session.SignalKind, pred func(session.State) bool) session.Signal {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				t.Fatalf("signal channel closed while waiting for %v", kind)
			}
			if sig.Kind == kind && (pred == nil || pred(sig.State)) {
				return sig
			}
		case <-timeout:
			t.Fatalf("timed out waiting for signal %v", kind)
		}
	}
}

// waitState polls the snapshot until pred holds.
func waitState(t *testing.T, s *session.Session, desc string, pred func(session.State) bool) session.State {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		st := s.Snapshot()
		if pred(st) {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last state %+v", desc, s.Snapshot())
	return session.State{}
}

func result(hyps ...string) []asr.Event {
	return []asr.Event{{Kind: asr.EventResult, Hypotheses: hyps}}
}

func fault(class asr.FaultClass) []asr.Event {
	return []asr.Event{{Kind: asr.EventFault, Fault: class, Err: errors.New("scripted fault")}}
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()
	if _, err := session.New(session.Deps{}); err == nil {
		t.Fatal("New with empty deps: want error, got nil")
	}
}

func TestBeginOnEmptySource(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, session.Config{})
	if err := h.sess.Begin(context.Background()); !errors.Is(err, session.ErrNoSentence) {
		t.Fatalf("Begin on empty source: got %v, want ErrNoSentence", err)
	}
}

func TestSuccessfulAttemptAdvances(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})
	h.asrSess.Script(result("ran fast"))

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	sig := nextSignal(t, h.sess.Signals(), session.SignalTarget, func(st session.State) bool {
		return st.Target != nil
	})
	if got := sig.State.Target.Phrase; got != "ran fast." {
		t.Errorf("published target = %q, want %q", got, "ran fast.")
	}

	sig = nextSignal(t, h.sess.Signals(), session.SignalAttempt, nil)
	if sig.State.Attempts.LastSuccess == nil || !*sig.State.Attempts.LastSuccess {
		t.Errorf("attempt signal LastSuccess = %v, want true", sig.State.Attempts.LastSuccess)
	}
	if sig.State.Attempts.Count != 0 {
		t.Errorf("attempt count after success = %d, want 0", sig.State.Attempts.Count)
	}

	nextSignal(t, h.sess.Signals(), session.SignalAdvance, nil)
	nextSignal(t, h.sess.Signals(), session.SignalFinished, nil)

	if got := h.cues.Successes(); got != 1 {
		t.Errorf("success cues = %d, want 1", got)
	}
	st := h.sess.Snapshot()
	if st.Phase != session.PhaseIdle || st.Target != nil {
		t.Errorf("final state = %+v, want idle with no target", st)
	}

	// First visit has no cached timing, so the carrier degrades to the
	// full sentence.
	calls := h.speaker.CallsSnapshot()
	if len(calls) != 1 || calls[0].Kind != ttsmock.CallFull || calls[0].Text != "The dog ran fast." {
		t.Errorf("speaker calls = %+v, want one full-sentence playback", calls)
	}
}

func TestThreeFailuresEscalate(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})
	h.asrSess.Script(
		result("cat"),
		result("cat"),
		result("cat"),
		result("ran fast"),
	)

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	for want := 1; want <= 3; want++ {
		sig := nextSignal(t, h.sess.Signals(), session.SignalAttempt, nil)
		if sig.State.Attempts.Count != want {
			t.Fatalf("attempt %d: count = %d", want, sig.State.Attempts.Count)
		}
		if sig.State.Attempts.LastSuccess == nil || *sig.State.Attempts.LastSuccess {
			t.Fatalf("attempt %d: LastSuccess = %v, want false", want, sig.State.Attempts.LastSuccess)
		}
	}

	// The correction grants a fresh budget before the next window opens.
	sig := nextSignal(t, h.sess.Signals(), session.SignalAttempt, func(st session.State) bool {
		return st.Attempts.Count == 0
	})
	if sig.State.Phase != session.PhaseListening {
		t.Errorf("phase after correction = %v, want listening", sig.State.Phase)
	}

	nextSignal(t, h.sess.Signals(), session.SignalAdvance, nil)

	if got := h.cues.Failures(); got != 3 {
		t.Errorf("failure cues = %d, want 3", got)
	}
	if got := h.cues.Successes(); got != 1 {
		t.Errorf("success cues = %d, want 1", got)
	}

	var corrections int
	for _, c := range h.speaker.CallsSnapshot() {
		if c.Kind == ttsmock.CallFull && c.Text == "ran fast." {
			corrections++
		}
	}
	if corrections != 1 {
		t.Errorf("correction playbacks = %d, want 1", corrections)
	}
}

func TestRecoverableFaultIsFailedAttempt(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})
	h.asrSess.Script(
		fault(asr.FaultNoSpeech),
		result("ran fast"),
	)

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	sig := nextSignal(t, h.sess.Signals(), session.SignalAttempt, nil)
	if sig.State.Attempts.Count != 1 {
		t.Errorf("count after no-speech = %d, want 1", sig.State.Attempts.Count)
	}
	if sig.State.Attempts.LastSuccess == nil || *sig.State.Attempts.LastSuccess {
		t.Errorf("LastSuccess after no-speech = %v, want false", sig.State.Attempts.LastSuccess)
	}

	nextSignal(t, h.sess.Signals(), session.SignalAdvance, nil)

	if got := h.cues.Failures(); got != 1 {
		t.Errorf("failure cues = %d, want 1", got)
	}
	if h.sess.Disabled() {
		t.Error("recoverable fault disabled the session")
	}
}

func TestFatalFaultDisables(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})
	h.asrSess.Script(fault(asr.FaultPermission))

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	nextSignal(t, h.sess.Signals(), session.SignalDisabled, nil)

	if !h.sess.Disabled() {
		t.Error("Disabled() = false after fatal fault")
	}
	if err := h.sess.Begin(context.Background()); !errors.Is(err, session.ErrDisabled) {
		t.Errorf("Begin after fatal fault: got %v, want ErrDisabled", err)
	}
	waitState(t, h.sess, "recognizer teardown", func(session.State) bool {
		return h.asrSess.Closed()
	})
	if got := h.cues.Failures(); got != 0 {
		t.Errorf("failure cues after fatal fault = %d, want 0", got)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})
	h.speaker.Manual = true
	h.asrSess.Script(result("ran fast"))

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	h.sess.Cancel()
	h.sess.Cancel()

	st := h.sess.Snapshot()
	if st.Phase != session.PhaseIdle || st.Target != nil || st.Attempts.Count != 0 {
		t.Errorf("state after cancel = %+v, want cleared idle", st)
	}
	if h.speaker.StopCalls != 2 {
		t.Errorf("speaker stops = %d, want 2", h.speaker.StopCalls)
	}

	// The recognizer window is cancelled but the warm session survives
	// for the next Begin.
	if h.asrSess.Closed() {
		t.Error("cancel closed the recognizer session")
	}

	h.speaker.Manual = false
	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin after cancel: %v", err)
	}
	nextSignal(t, h.sess.Signals(), session.SignalAdvance, nil)

	if got := h.rec.Opened(); got != 1 {
		t.Errorf("recognizer opens = %d, want 1", got)
	}
}

func TestSingleWordSentenceSkipsCarrier(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"Run."}, session.Config{})
	h.asrSess.Script(result("run"))

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	sig := nextSignal(t, h.sess.Signals(), session.SignalTarget, func(st session.State) bool {
		return st.Target != nil
	})
	if got := sig.State.Target.Phrase; got != "Run." {
		t.Errorf("target = %q, want whole sentence", got)
	}

	nextSignal(t, h.sess.Signals(), session.SignalAdvance, nil)

	if calls := h.speaker.CallsSnapshot(); len(calls) != 0 {
		t.Errorf("speaker calls = %+v, want none for a single-word sentence", calls)
	}
}

func TestMicLevelTracksRMS(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	waitState(t, h.sess, "listening", func(st session.State) bool {
		return st.Phase == session.PhaseListening
	})

	h.asrSess.Emit(asr.Event{Kind: asr.EventLevel, RMS: 10})
	waitState(t, h.sess, "mic level 100", func(st session.State) bool {
		return st.MicLevel == 100
	})

	h.asrSess.Emit(asr.Event{Kind: asr.EventLevel, RMS: -40})
	waitState(t, h.sess, "mic level clamped to 0", func(st session.State) bool {
		return st.MicLevel == 0
	})
}

func TestAutoAdvanceReadsThroughSource(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{
		"The dog ran fast.",
		"She held the torch.",
	}, session.Config{AutoAdvance: true})
	h.asrSess.Script(
		result("ran fast"),
		result("the torch"),
	)

	if err := h.sess.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	nextSignal(t, h.sess.Signals(), session.SignalFinished, nil)

	if got := h.cues.Successes(); got != 2 {
		t.Errorf("success cues = %d, want 2", got)
	}
	if got := h.rec.Opened(); got != 1 {
		t.Errorf("recognizer opens = %d, want 1 (warm session reused)", got)
	}

	var sentences []string
	for _, c := range h.speaker.CallsSnapshot() {
		if c.Kind == ttsmock.CallFull {
			sentences = append(sentences, c.Text)
		}
	}
	if len(sentences) != 2 || sentences[0] != "The dog ran fast." || sentences[1] != "She held the torch." {
		t.Errorf("carrier playbacks = %q, want both sentences in order", sentences)
	}
}

func TestBeginAfterClose(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"The dog ran fast."}, session.Config{})

	if err := h.sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.sess.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := h.sess.Begin(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Begin after Close: got %v, want ErrClosed", err)
	}
	if _, ok := <-h.sess.Signals(); ok {
		t.Error("signal channel still open after Close")
	}
}
