package resilience

import (
	"context"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
)

// ASRFallback implements [asr.Recognizer] with automatic failover across
// multiple recognition backends. Each backend has its own circuit breaker.
//
// Failover happens at Open time: once a session is handed out, its faults
// flow to the reading session's own error taxonomy, not the breaker.
type ASRFallback struct {
	group *FallbackGroup[asr.Recognizer]
}

// Compile-time interface assertion.
var _ asr.Recognizer = (*ASRFallback)(nil)

// NewASRFallback creates an [ASRFallback] with primary as the preferred
// backend.
func NewASRFallback(primary asr.Recognizer, primaryName string, cfg FallbackConfig) *ASRFallback {
	return &ASRFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional recognizer as a fallback.
func (f *ASRFallback) AddFallback(name string, rec asr.Recognizer) {
	f.group.AddFallback(name, rec)
}

// Open opens a recognition session against the first healthy backend. If
// the primary fails to open, subsequent fallbacks are tried.
func (f *ASRFallback) Open(ctx context.Context, cfg asr.Config) (asr.Session, error) {
	return ExecuteWithResult(f.group, func(r asr.Recognizer) (asr.Session, error) {
		return r.Open(ctx, cfg)
	})
}
