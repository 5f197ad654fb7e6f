// ABOUTME: Entry point for the cue engine daemon
// ABOUTME: Hosts the engine, a status endpoint and the diagnostic tap
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/soundcue/soundcue-go/internal/tap"
	"github.com/soundcue/soundcue-go/pkg/choreo"
	"github.com/soundcue/soundcue-go/pkg/cue"
)

var (
	manifestPath = flag.String("manifest", "manifest.json", "Asset manifest JSON path")
	listen       = flag.String("listen", ":8917", "HTTP listen address for status and tap")
	timelinePath = flag.String("timeline", "", "Optional timeline YAML to run on /run")
	debug        = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("cued failed")
	}
}

func run(log zerolog.Logger) error {
	manifest, err := os.ReadFile(*manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	engine := cue.New(cue.Config{Logger: log})
	ctx := context.Background()
	if err := engine.Init(ctx, manifest); err != nil {
		return err
	}
	defer engine.Close()

	// The daemon has no browser-style gesture gate; unlock immediately
	if err := engine.Resume(); err != nil {
		return err
	}

	timeline := choreo.WinnerReveal()
	if *timelinePath != "" {
		timeline, err = choreo.LoadTimeline(*timelinePath)
		if err != nil {
			return err
		}
		if res := timeline.Validate(); !res.Valid {
			return fmt.Errorf("timeline %s invalid: %v", *timelinePath, res.Errors)
		}
	}

	eventTap := tap.New(log)
	eventTap.Attach(engine.Events())
	defer eventTap.Close()

	runner := choreo.NewRunner(engine, clockwork.NewRealClock(), nil, log)

	mux := http.NewServeMux()
	mux.Handle("/tap", eventTap.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(engine.Status())
	})
	mux.HandleFunc("/play", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		res := engine.Play(r.Context(), key, cue.PlayOptions{})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		outcome := r.URL.Query().Get("outcome")
		results := runner.Run(context.Background(), timeline, outcome)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	})
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runner.Recorder().GenerateReport())
	})

	srv := &http.Server{Addr: *listen, Handler: mux}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("listen", *listen).Str("backend", engine.Status().ActiveBackend).Msg("cued ready")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
