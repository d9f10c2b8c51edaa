package config_test

import (
	"strings"
	"testing"

	"github.com/TiGz/arlo-reading-app-sub000/internal/config"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
providers:
  asr:
    name: console
  tts:
    name: console
  cues:
    name: none
reading:
  book_file: books/sample.txt
  language: en-GB
  auto_advance: true
  success_dwell_ms: 1200
  fail_dwell_ms: 900
cache:
  capacity: 256
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Providers.ASR.Name != "console" {
		t.Errorf("asr provider = %q, want console", cfg.Providers.ASR.Name)
	}
	if !cfg.Reading.AutoAdvance {
		t.Error("auto_advance should be true")
	}
	if cfg.Reading.SuccessDwellMs != 1200 {
		t.Errorf("success_dwell_ms = %d, want 1200", cfg.Reading.SuccessDwellMs)
	}
	if cfg.Cache.Capacity != 256 {
		t.Errorf("cache.capacity = %d, want 256", cfg.Cache.Capacity)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_adr: ":8080"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
providers:
  asr:
    name: console
  tts:
    name: console
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_RequiresASRAndTTS(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("reading:\n  language: en-GB\n"))
	if err == nil {
		t.Fatal("expected error for missing providers, got nil")
	}
	if !strings.Contains(err.Error(), "providers.asr.name") {
		t.Errorf("error should mention providers.asr.name, got: %v", err)
	}
	if !strings.Contains(err.Error(), "providers.tts.name") {
		t.Errorf("error should mention providers.tts.name, got: %v", err)
	}
}

func TestValidate_FallbackNeedsName(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  asr:
    name: console
  tts:
    name: console
  asr_fallbacks:
    - name: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unnamed fallback, got nil")
	}
	if !strings.Contains(err.Error(), "asr_fallbacks[0]") {
		t.Errorf("error should mention asr_fallbacks[0], got: %v", err)
	}
}

func TestValidate_NegativeDwell(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  asr:
    name: console
  tts:
    name: console
reading:
  success_dwell_ms: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative dwell, got nil")
	}
	if !strings.Contains(err.Error(), "success_dwell_ms") {
		t.Errorf("error should mention success_dwell_ms, got: %v", err)
	}
}

func TestValidate_NegativeCacheCapacity(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  asr:
    name: console
  tts:
    name: console
cache:
  capacity: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative cache capacity, got nil")
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error("verbose should be invalid")
	}
}
