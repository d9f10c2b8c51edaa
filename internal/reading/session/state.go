package session

import "github.com/TiGz/arlo-reading-app-sub000/internal/reading/span"

// Phase is the collaborative session's current phase.
type Phase int

const (
	// PhaseIdle — no listening window is open. The session is either
	// between sentences or playing carrier audio.
	PhaseIdle Phase = iota

	// PhaseListening — a recognition window is open for the target span.
	PhaseListening

	// PhaseFeedback — an attempt has just been judged; the session is
	// dwelling on the success or failure cue before the next transition.
	PhaseFeedback
)

// String returns the human-readable name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// AttemptRecord tracks the bounded retry budget for the current target.
// Count stays within [0,3]; escalation resets it to 0.
type AttemptRecord struct {
	// Count is the number of consecutive failed attempts, 0..3.
	Count int

	// LastSuccess is the verdict of the most recent judged attempt, nil
	// when no attempt has been judged since the last reset.
	LastSuccess *bool
}

// State is the complete observable state of a collaborative session. It is
// mutated only inside the session's transition function; callbacks feed
// events in, they never write state directly.
type State struct {
	// Phase is the current phase.
	Phase Phase

	// Target is the span the listener is asked to read. Nil only while
	// Idle before the carrier has finished playing.
	Target *span.Target

	// Attempts is the retry budget for the current target.
	Attempts AttemptRecord

	// MicLevel is the microphone input level, 0..100, derived from the
	// recognizer's RMS updates while listening.
	MicLevel int
}

// clone returns a deep copy safe to hand outside the session lock.
func (s State) clone() State {
	out := s
	if s.Target != nil {
		t := *s.Target
		out.Target = &t
	}
	if s.Attempts.LastSuccess != nil {
		v := *s.Attempts.LastSuccess
		out.Attempts.LastSuccess = &v
	}
	return out
}

// SignalKind discriminates the session's outbound signals.
type SignalKind int

const (
	// SignalPhase — the phase changed.
	SignalPhase SignalKind = iota

	// SignalTarget — the published target span changed.
	SignalTarget

	// SignalAttempt — an attempt was judged (see State.Attempts).
	SignalAttempt

	// SignalMicLevel — the microphone level changed.
	SignalMicLevel

	// SignalAdvance — the sentence was read successfully; move on.
	SignalAdvance

	// SignalFinished — the text source is exhausted.
	SignalFinished

	// SignalDisabled — a fatal recognizer fault disabled collaborative
	// mode for the rest of the session. Emitted exactly once.
	SignalDisabled
)

// String returns the human-readable name of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalPhase:
		return "phase"
	case SignalTarget:
		return "target"
	case SignalAttempt:
		return "attempt"
	case SignalMicLevel:
		return "mic_level"
	case SignalAdvance:
		return "advance"
	case SignalFinished:
		return "finished"
	case SignalDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Signal is one outbound notification, carrying a snapshot of the state at
// the moment it was emitted.
type Signal struct {
	Kind  SignalKind
	State State
}
