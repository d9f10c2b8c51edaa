// Package config provides the configuration schema, loader, and provider
// registry for the collaborative reading engine.
package config

// LogLevel controls log verbosity for the reading server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for the reading engine.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Reading   ReadingConfig   `yaml:"reading"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig holds network and logging settings for the reading server.
type ServerConfig struct {
	// ListenAddr is the TCP address the metrics/health server listens on
	// (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// capability. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	ASR  ProviderEntry `yaml:"asr"`
	TTS  ProviderEntry `yaml:"tts"`
	Cues ProviderEntry `yaml:"cues"`

	// ASRFallbacks are tried in order when the primary recognizer cannot
	// open a session.
	ASRFallbacks []ProviderEntry `yaml:"asr_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "console").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above. Values may be strings, numbers, booleans,
	// or nested maps.
	Options map[string]any `yaml:"options"`
}

// ReadingConfig holds the tuning knobs of the collaborative session.
type ReadingConfig struct {
	// BookFile is the path to a text file with one sentence per line.
	BookFile string `yaml:"book_file"`

	// Language is the BCP-47 recognition language tag (e.g., "en-GB").
	Language string `yaml:"language"`

	// AutoAdvance makes the session move straight into the next sentence's
	// carrier playback after each success.
	AutoAdvance bool `yaml:"auto_advance"`

	// SuccessDwellMs is the pause after a matched attempt, in milliseconds.
	// 0 selects the built-in default.
	SuccessDwellMs int `yaml:"success_dwell_ms"`

	// FailDwellMs is the pause after a failed attempt, in milliseconds.
	// 0 selects the built-in default.
	FailDwellMs int `yaml:"fail_dwell_ms"`

	// HomophonesFile is an optional YAML file of homophone classes that
	// replaces the built-in English table.
	HomophonesFile string `yaml:"homophones_file"`
}

// CacheConfig holds settings for the word-timestamp audio cache.
type CacheConfig struct {
	// Capacity is the maximum number of sentences whose word timing is
	// retained. 0 selects the built-in default.
	Capacity int `yaml:"capacity"`
}
