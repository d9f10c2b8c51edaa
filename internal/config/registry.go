package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/cues"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	asr  map[string]func(ProviderEntry) (asr.Recognizer, error)
	tts  map[string]func(ProviderEntry) (tts.Speaker, error)
	cues map[string]func(ProviderEntry) (cues.Cues, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		asr:  make(map[string]func(ProviderEntry) (asr.Recognizer, error)),
		tts:  make(map[string]func(ProviderEntry) (tts.Speaker, error)),
		cues: make(map[string]func(ProviderEntry) (cues.Cues, error)),
	}
}

// RegisterASR registers a recognizer factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterASR(name string, factory func(ProviderEntry) (asr.Recognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asr[name] = factory
}

// RegisterTTS registers a speaker factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (tts.Speaker, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterCues registers a cue player factory under name.
func (r *Registry) RegisterCues(name string, factory func(ProviderEntry) (cues.Cues, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues[name] = factory
}

// CreateASR instantiates a recognizer using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateASR(entry ProviderEntry) (asr.Recognizer, error) {
	r.mu.RLock()
	factory, ok := r.asr[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: asr/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTTS instantiates a speaker using the factory registered under
// entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Speaker, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateCues instantiates a cue player using the factory registered under
// entry.Name. An empty name yields the silent no-op player.
func (r *Registry) CreateCues(entry ProviderEntry) (cues.Cues, error) {
	if entry.Name == "" || entry.Name == "none" {
		return cues.Nop{}, nil
	}
	r.mu.RLock()
	factory, ok := r.cues[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: cues/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
