// Command arlo-reading runs the collaborative reading engine: sentences are
// read aloud up to a trailing target span, the listener speaks the missing
// words, and the engine judges the attempt with homophone and phonetic
// tolerance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/TiGz/arlo-reading-app-sub000/internal/config"
	"github.com/TiGz/arlo-reading-app-sub000/internal/health"
	"github.com/TiGz/arlo-reading-app-sub000/internal/observe"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/clip"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/match"
	"github.com/TiGz/arlo-reading-app-sub000/internal/reading/session"
	"github.com/TiGz/arlo-reading-app-sub000/internal/resilience"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/audiocache"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr"
	asrconsole "github.com/TiGz/arlo-reading-app-sub000/pkg/provider/asr/console"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/cues"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts"
	ttsconsole "github.com/TiGz/arlo-reading-app-sub000/pkg/provider/tts/console"
	"github.com/TiGz/arlo-reading-app-sub000/pkg/textsource"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	bookPath := flag.String("book", "", "book file (one sentence per line); overrides reading.book_file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "arlo-reading: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "arlo-reading: %v\n", err)
		}
		return 1
	}
	if *bookPath != "" {
		cfg.Reading.BookFile = *bookPath
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("arlo-reading starting",
		"version", version,
		"config", *configPath,
		"book", cfg.Reading.BookFile,
		"listen_addr", cfg.Server.ListenAddr,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "arlo-reading",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	cache := audiocache.NewMemory(cfg.Cache.Capacity)

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cache)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Book ──────────────────────────────────────────────────────────────────
	src, err := loadBook(cfg.Reading.BookFile)
	if err != nil {
		slog.Error("failed to load book", "err", err)
		return 1
	}
	slog.Info("book loaded", "sentences", src.Len())

	// ── Matcher ───────────────────────────────────────────────────────────────
	matcher, err := buildMatcher(cfg.Reading.HomophonesFile)
	if err != nil {
		slog.Error("failed to build matcher", "err", err)
		return 1
	}

	// ── Session ───────────────────────────────────────────────────────────────
	sess, err := session.New(session.Deps{
		Source:     src,
		Clipper:    clip.New(providers.Speaker, cache),
		Matcher:    matcher,
		Recognizer: providers.Recognizer,
		Cues:       providers.Cues,
		Config: session.Config{
			SuccessDwell: time.Duration(cfg.Reading.SuccessDwellMs) * time.Millisecond,
			FailDwell:    time.Duration(cfg.Reading.FailDwellMs) * time.Millisecond,
			Language:     cfg.Reading.Language,
			AutoAdvance:  cfg.Reading.AutoAdvance,
		},
	})
	if err != nil {
		slog.Error("failed to create session", "err", err)
		return 1
	}
	defer sess.Close()

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return serveHTTP(gctx, cfg.Server.ListenAddr, src, sess)
	})
	g.Go(func() error {
		defer cancel()
		return readingLoop(gctx, sess, src, providers.Speaker, cfg.Reading.AutoAdvance)
	})

	slog.Info("ready — press Ctrl+C to stop")

	if err := sess.Begin(ctx); err != nil {
		slog.Error("failed to start reading", "err", err)
		cancel()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// readingLoop consumes session signals until the book is finished, the
// context ends, or collaborative mode is disabled. On a fatal recognizer
// fault it degrades to plain read-aloud for the rest of the book.
func readingLoop(ctx context.Context, sess *session.Session, src *textsource.Slice, speaker tts.Speaker, autoAdvance bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-sess.Signals():
			if !ok {
				return nil
			}
			switch sig.Kind {
			case session.SignalTarget:
				if sig.State.Target != nil {
					slog.Info("your turn", "read", sig.State.Target.Phrase)
				}
			case session.SignalAttempt:
				if sig.State.Attempts.LastSuccess != nil {
					slog.Info("attempt judged",
						"success", *sig.State.Attempts.LastSuccess,
						"failures", sig.State.Attempts.Count,
					)
				}
			case session.SignalAdvance:
				// In auto-advance mode the session starts the next
				// carrier itself.
				if !autoAdvance {
					if err := sess.Begin(ctx); err != nil {
						return fmt.Errorf("begin next sentence: %w", err)
					}
				}
			case session.SignalFinished:
				slog.Info("book finished")
				return nil
			case session.SignalDisabled:
				slog.Warn("collaborative mode unavailable, reading the rest aloud")
				return readAloud(ctx, src, speaker)
			}
		}
	}
}

// readAloud plays each remaining sentence in full, one at a time.
func readAloud(ctx context.Context, src *textsource.Slice, speaker tts.Speaker) error {
	for {
		sentence, ok := src.Current()
		if !ok {
			slog.Info("book finished")
			return nil
		}

		done := make(chan error, 1)
		speaker.PlayFull(ctx, sentence.Text, func(err error) { done <- err })
		select {
		case <-ctx.Done():
			speaker.Stop()
			return ctx.Err()
		case err := <-done:
			if err != nil {
				return fmt.Errorf("play %q: %w", sentence.Text, err)
			}
		}

		if !src.Advance() {
			slog.Info("book finished")
			return nil
		}
	}
}

// serveHTTP runs the metrics and health endpoint server until ctx ends.
// An empty addr disables the server.
func serveHTTP(ctx context.Context, addr string, src *textsource.Slice, sess *session.Session) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(
		health.Checker{Name: "book", Check: func(context.Context) error {
			if src.Len() == 0 {
				return errors.New("no sentences loaded")
			}
			return nil
		}},
		health.Checker{Name: "recognizer", Check: func(context.Context) error {
			if sess.Disabled() {
				return errors.New("collaborative mode disabled")
			}
			return nil
		}},
	).Register(mux)

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// providerSet holds the instantiated speech providers.
type providerSet struct {
	Recognizer asr.Recognizer
	Speaker    tts.Speaker
	Cues       cues.Cues
}

// registerBuiltinProviders wires the provider factories that ship with the
// engine into reg. The console providers exercise the full pipeline from a
// terminal: typed lines are spoken attempts, printed lines are speech.
func registerBuiltinProviders(reg *config.Registry, index audiocache.Index) {
	reg.RegisterASR("console", func(config.ProviderEntry) (asr.Recognizer, error) {
		return asrconsole.New(os.Stdin), nil
	})

	reg.RegisterTTS("console", func(entry config.ProviderEntry) (tts.Speaker, error) {
		var opts []ttsconsole.Option
		if ms := optInt(entry.Options, "word_duration_ms"); ms > 0 {
			opts = append(opts, ttsconsole.WithWordDuration(time.Duration(ms)*time.Millisecond))
		}
		return ttsconsole.New(os.Stdout, index, opts...), nil
	})
}

// buildProviders instantiates the providers named in cfg. The recognizer is
// wrapped in a circuit-breaking fallback group; configured fallback backends
// are tried in order when the primary cannot open a session.
func buildProviders(cfg *config.Config, reg *config.Registry) (*providerSet, error) {
	ps := &providerSet{}

	rec, err := reg.CreateASR(cfg.Providers.ASR)
	if err != nil {
		return nil, fmt.Errorf("create asr provider %q: %w", cfg.Providers.ASR.Name, err)
	}
	fallback := resilience.NewASRFallback(rec, cfg.Providers.ASR.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.Providers.ASRFallbacks {
		fb, err := reg.CreateASR(entry)
		if err != nil {
			return nil, fmt.Errorf("create asr fallback %q: %w", entry.Name, err)
		}
		fallback.AddFallback(entry.Name, fb)
		slog.Info("provider created", "kind", "asr", "name", entry.Name, "role", "fallback")
	}
	ps.Recognizer = fallback
	slog.Info("provider created", "kind", "asr", "name", cfg.Providers.ASR.Name)

	ps.Speaker, err = reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		return nil, fmt.Errorf("create tts provider %q: %w", cfg.Providers.TTS.Name, err)
	}
	slog.Info("provider created", "kind", "tts", "name", cfg.Providers.TTS.Name)

	ps.Cues, err = reg.CreateCues(cfg.Providers.Cues)
	if err != nil {
		return nil, fmt.Errorf("create cues provider %q: %w", cfg.Providers.Cues.Name, err)
	}

	return ps, nil
}

// loadBook reads the configured book file, or returns an empty source when
// no file is configured.
func loadBook(path string) (*textsource.Slice, error) {
	if path == "" {
		return textsource.FromStrings(nil), nil
	}
	return textsource.LoadFile(path)
}

// buildMatcher creates the attempt matcher, replacing the built-in English
// homophone table when a custom table file is configured.
func buildMatcher(homophonesFile string) (*match.Matcher, error) {
	if homophonesFile == "" {
		return match.New(), nil
	}
	table, err := match.LoadTable(homophonesFile)
	if err != nil {
		return nil, err
	}
	return match.New(match.WithHomophones(table)), nil
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optInt extracts an integer value from a provider Options map[string]any.
// YAML decodes numbers as int; 0 is returned for anything else.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	v, ok := opts[key]
	if !ok {
		return 0
	}
	n, ok := v.(int)
	if !ok {
		return 0
	}
	return n
}
