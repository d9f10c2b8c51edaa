package asr

// EventKind discriminates the variants of [Event].
type EventKind int

const (
	// EventReady signals the recognition window is open and capturing.
	EventReady EventKind = iota

	// EventLevel carries a microphone input level update.
	EventLevel

	// EventPartial carries a low-latency interim transcription.
	EventPartial

	// EventResult carries the final hypothesis list for one window.
	EventResult

	// EventFault signals the window ended without a usable result.
	EventFault
)

// String returns the human-readable name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventLevel:
		return "level"
	case EventPartial:
		return "partial"
	case EventResult:
		return "result"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event is one occurrence on a session's event stream. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// Hypotheses is the ordered candidate transcription list for an
	// EventResult, best first.
	Hypotheses []string

	// Text is the interim transcription for an EventPartial.
	Text string

	// RMS is the input level for an EventLevel, in the backend's native
	// scale (typically roughly -2..10 for on-device recognizers).
	RMS float64

	// Fault classifies an EventFault.
	Fault FaultClass

	// Err carries backend detail for an EventFault. May be nil.
	Err error
}

// FaultClass categorizes recognition failures. The split between recoverable
// and fatal classes drives the session's behavior: recoverable faults count
// as ordinary failed reading attempts, fatal faults abort collaborative mode
// for the rest of the session.
type FaultClass int

const (
	// FaultNoSpeech — the window closed without detecting any speech.
	// Expected when a child hesitates; an ordinary failed attempt.
	FaultNoSpeech FaultClass = iota

	// FaultSpeechTimeout — speech started but the backend's own timeout
	// elapsed before a result. An ordinary failed attempt.
	FaultSpeechTimeout

	// FaultBusy — the backend was busy with another request.
	FaultBusy

	// FaultNetwork — a transient network error.
	FaultNetwork

	// FaultNetworkTimeout — a network operation timed out.
	FaultNetworkTimeout

	// FaultPermission — microphone or recognition permission is missing.
	FaultPermission

	// FaultClient — a client-side backend error.
	FaultClient

	// FaultUnavailable — the recognition service cannot be reached or
	// created at all.
	FaultUnavailable
)

// String returns the human-readable name of the fault class.
func (c FaultClass) String() string {
	switch c {
	case FaultNoSpeech:
		return "no_speech"
	case FaultSpeechTimeout:
		return "speech_timeout"
	case FaultBusy:
		return "busy"
	case FaultNetwork:
		return "network"
	case FaultNetworkTimeout:
		return "network_timeout"
	case FaultPermission:
		return "permission"
	case FaultClient:
		return "client"
	case FaultUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Recoverable reports whether the fault counts as an ordinary failed attempt
// (true) or must abort collaborative mode (false). Busy and network faults
// are deliberately recoverable so a flaky connection does not strand a
// reader mid-sentence.
func (c FaultClass) Recoverable() bool {
	switch c {
	case FaultNoSpeech, FaultSpeechTimeout, FaultBusy, FaultNetwork, FaultNetworkTimeout:
		return true
	}
	return false
}
