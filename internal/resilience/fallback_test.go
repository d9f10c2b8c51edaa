package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/TiGz/arlo-reading-app-sub000/internal/resilience"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
	asrmock "github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr/mock"
)

func TestFallbackGroup_PrimaryFailureUsesFallback(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "primary", resilience.FallbackConfig{})
	fg.AddFallback("backup", "backup")

	var used []string
	err := fg.Execute(func(name string) error {
		used = append(used, name)
		if name == "primary" {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(used) != 2 || used[0] != "primary" || used[1] != "backup" {
		t.Errorf("tried %v, want [primary backup]", used)
	}
}

func TestFallbackGroup_AllFailed(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "primary", resilience.FallbackConfig{})
	fg.AddFallback("backup", "backup")

	err := fg.Execute(func(string) error { return errBoom })
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Errorf("got %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_OpenPrimaryIsSkipped(t *testing.T) {
	t.Parallel()
	fg := resilience.NewFallbackGroup("primary", "primary", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 1},
	})
	fg.AddFallback("backup", "backup")

	// Trip the primary's breaker.
	_ = fg.Execute(func(name string) error {
		if name == "primary" {
			return errBoom
		}
		return nil
	})

	var used []string
	err := fg.Execute(func(name string) error {
		used = append(used, name)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(used) != 1 || used[0] != "backup" {
		t.Errorf("tried %v, want [backup] (primary breaker open)", used)
	}
}

func TestASRFallback_OpenFailsOver(t *testing.T) {
	t.Parallel()
	backupSess := asrmock.NewSession()
	primary := &asrmock.Recognizer{OpenErr: errBoom}
	backup := &asrmock.Recognizer{Session: backupSess}

	f := resilience.NewASRFallback(primary, "primary", resilience.FallbackConfig{})
	f.AddFallback("backup", backup)

	sess, err := f.Open(context.Background(), asr.Config{Language: "en-GB"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sess != asr.Session(backupSess) {
		t.Error("Open did not return the backup's session")
	}
	if primary.Opened() != 1 || backup.Opened() != 1 {
		t.Errorf("opens = primary %d backup %d, want 1 and 1",
			primary.Opened(), backup.Opened())
	}
}

func TestASRFallback_AllBackendsFail(t *testing.T) {
	t.Parallel()
	f := resilience.NewASRFallback(&asrmock.Recognizer{OpenErr: errBoom}, "primary", resilience.FallbackConfig{})
	f.AddFallback("backup", &asrmock.Recognizer{OpenErr: errBoom})

	if _, err := f.Open(context.Background(), asr.Config{}); !errors.Is(err, resilience.ErrAllFailed) {
		t.Errorf("got %v, want ErrAllFailed", err)
	}
}
