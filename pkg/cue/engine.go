// ABOUTME: The cue engine: scheduler and public play contract
// ABOUTME: Debounce, latency compensation, fades, polyphony and preferences
package cue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/soundcue/soundcue-go/pkg/audio/decode"
	"github.com/soundcue/soundcue-go/pkg/audio/fetch"
	"github.com/soundcue/soundcue-go/pkg/audio/output"
)

const (
	// DefaultDebounceWindow filters duplicate triggers per key; upstream
	// network events can double-fire.
	DefaultDebounceWindow = 100 * time.Millisecond

	// DefaultLatencyCompensation is subtracted from absolute schedule
	// targets so the output pipeline delay lands playback on the nominal
	// time as heard. Empirical; calibrate per output stack.
	DefaultLatencyCompensation = 80 * time.Millisecond
)

// Config holds engine configuration. Zero values get defaults.
type Config struct {
	SampleRate          int
	Channels            int
	DebounceWindow      time.Duration
	LatencyCompensation time.Duration
	PrefsPath           string
	HTTPClient          *http.Client
	Clock               clockwork.Clock
	Logger              zerolog.Logger

	// Backend overrides capability probing; used by tests and embedders
	Backend Backend
}

// PlayOptions control one trigger. ScheduleAt and Delay are mutually
// exclusive expressions of when; ScheduleAt wins if both are set.
// A Volume of 0 means full volume.
type PlayOptions struct {
	Volume     float64
	Loop       bool
	Delay      time.Duration
	ScheduleAt time.Time
	FadeIn     time.Duration

	// FadeOut is the default ramp applied when this voice is stopped
	// without an explicit fade
	FadeOut time.Duration
}

// PlayResult is always returned, even for expected no-ops, so callers
// never branch on errors for "no sound" cases. Played reports whether a
// voice was actually scheduled.
type PlayResult struct {
	Key         string
	Played      bool
	Duration    time.Duration
	ScheduledAt time.Time
	EndsAt      time.Time
}

// Status is a point-in-time snapshot of the engine
type Status struct {
	Initialized   bool     `json:"initialized"`
	Enabled       bool     `json:"enabled"`
	Muted         bool     `json:"muted"`
	MasterVolume  float64  `json:"masterVolume"`
	LoadedAssets  []string `json:"loadedAssets"`
	FailedAssets  []string `json:"failedAssets"`
	ActiveBackend string   `json:"activeBackend"`
	CanAutoplay   bool     `json:"canAutoplay"`
}

type activeVoice struct {
	voice       Voice
	defaultFade time.Duration
}

// Engine is the audio cue service. Construct with New, wire with Init,
// and pass the instance to consumers; there is no package-level state.
type Engine struct {
	cfg    Config
	clock  clockwork.Clock
	log    zerolog.Logger
	events *Bus

	mu          sync.Mutex
	initialized bool
	enabled     bool
	muted       bool
	volume      float64
	resumed     bool
	lastPlay    map[string]time.Time
	voices      map[string][]activeVoice

	manifest *Manifest
	loader   *Loader
	backend  Backend
	prefs    *PrefStore
}

// New creates an engine; Init must run before anything plays
func New(cfg Config) *Engine {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 2
	}
	if cfg.DebounceWindow == 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.LatencyCompensation == 0 {
		cfg.LatencyCompensation = DefaultLatencyCompensation
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = DefaultPrefsPath()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Engine{
		cfg:      cfg,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		events:   NewBus(),
		lastPlay: make(map[string]time.Time),
		voices:   make(map[string][]activeVoice),
	}
}

// Init parses the manifest, selects a backend, restores preferences and
// preloads eager assets. The only fatal error path in the engine.
func (e *Engine) Init(ctx context.Context, manifestJSON []byte) error {
	manifest, err := ParseManifest(manifestJSON)
	if err != nil {
		return newError(CodeInitializationFailed, "", err)
	}

	backend := e.cfg.Backend
	if backend == nil {
		backend, err = probeBackend(e.cfg, e.log)
		if err != nil {
			return newError(CodeInitializationFailed, "", err)
		}
	}
	if err := backend.Start(); err != nil {
		return newError(CodeInitializationFailed, "", fmt.Errorf("backend start: %w", err))
	}

	prefs := OpenPrefStore(e.cfg.PrefsPath, e.log)
	p := prefs.Get()

	loader := NewLoader(manifest, fetch.NewClient(e.cfg.HTTPClient), decode.NewNegotiator(),
		e.cfg.SampleRate, e.cfg.Channels, e.log)

	e.mu.Lock()
	e.manifest = manifest
	e.loader = loader
	e.backend = backend
	e.prefs = prefs
	e.enabled = p.Enabled
	e.muted = p.Muted
	e.volume = p.MasterVolume
	e.initialized = true
	e.mu.Unlock()

	e.applyMasterGain()

	e.log.Info().
		Str("backend", backend.Name()).
		Int("assets", len(manifest.Assets)).
		Bool("enabled", p.Enabled).
		Msg("cue engine initialized")

	for _, res := range loader.Preload(ctx, manifest.Preload) {
		e.publishLoad(res)
	}

	e.publishState()
	return nil
}

// probeBackend picks the graph mixer when a continuous output stream is
// available, falling back to per-clip players
func probeBackend(cfg Config, log zerolog.Logger) (Backend, error) {
	mixer, err := NewMixer(output.NewOto(), cfg.Clock, cfg.SampleRate, cfg.Channels, log)
	if err == nil {
		return mixer, nil
	}
	log.Warn().Err(err).Msg("mixer backend unavailable, trying clip backend")

	players, perr := output.NewOtoPlayers(cfg.SampleRate, cfg.Channels)
	if perr != nil {
		return nil, fmt.Errorf("no playback backend available: mixer: %v, clip: %w", err, perr)
	}
	return NewClipBackend(players, cfg.Clock, log), nil
}

// Play schedules one voice for the key. Expected no-sound conditions
// (not initialized, disabled, autoplay gated, debounced, load failure)
// return the default result without error.
func (e *Engine) Play(ctx context.Context, key string, opts PlayOptions) PlayResult {
	res := PlayResult{Key: key, Duration: e.durationHint(key)}

	e.mu.Lock()
	if !e.initialized || !e.enabled {
		e.mu.Unlock()
		e.log.Debug().Str("key", key).Bool("initialized", e.initialized).Msg("play skipped: engine inactive")
		return res
	}
	if !e.resumed {
		e.mu.Unlock()
		// Platform policy, not a failure: surface via Status().CanAutoplay
		e.log.Debug().Str("key", key).Msg("play skipped: autoplay blocked until user gesture")
		return res
	}

	now := e.clock.Now()
	if last, ok := e.lastPlay[key]; ok && now.Sub(last) < e.cfg.DebounceWindow {
		e.mu.Unlock()
		e.log.Debug().Str("key", key).Msg("play skipped: debounced")
		return res
	}
	e.lastPlay[key] = now
	backend := e.backend
	e.mu.Unlock()

	load := e.loader.Ensure(ctx, key)
	if !load.Success {
		e.publishLoad(load)
		return res
	}

	clip, _ := e.loader.Clip(key)
	res.Duration = clip.Duration()

	nominal := opts.ScheduleAt
	if nominal.IsZero() {
		nominal = now
		if opts.Delay > 0 {
			nominal = now.Add(opts.Delay)
		}
	}

	start := nominal
	if backend.SchedulesAbsolute() {
		// Trigger early so the output pipeline delay lands audible
		// playback on the nominal time
		start = start.Add(-e.cfg.LatencyCompensation)
	}

	gain := opts.Volume
	if gain <= 0 || gain > 1 {
		gain = 1.0
	}
	gain *= e.manifest.GroupVolume(key)

	voice, err := backend.ScheduleVoice(clip, VoiceOptions{
		Key:     key,
		Gain:    gain,
		Loop:    opts.Loop,
		StartAt: start,
		FadeIn:  opts.FadeIn,
	})
	if err != nil {
		e.publishError(CodePlayFailed, key, err)
		return res
	}

	e.mu.Lock()
	e.voices[key] = append(pruneVoices(e.voices[key]), activeVoice{voice: voice, defaultFade: opts.FadeOut})
	e.mu.Unlock()

	res.Played = true
	res.ScheduledAt = nominal
	if !opts.Loop {
		res.EndsAt = nominal.Add(res.Duration)
	}

	e.events.Publish(Event{Type: EventPlay, At: now, Key: key})
	return res
}

// PlaySequence plays keys back to back, advancing the cursor by each
// key's measured duration. Unloaded keys fall back to manifest hints,
// which may be zero and collapse the gap.
func (e *Engine) PlaySequence(ctx context.Context, keys []string, opts []PlayOptions) []PlayResult {
	results := make([]PlayResult, 0, len(keys))
	cursor := e.clock.Now()

	for i, key := range keys {
		var o PlayOptions
		if i < len(opts) {
			o = opts[i]
		}
		o.ScheduleAt = cursor
		o.Delay = 0

		res := e.Play(ctx, key, o)
		results = append(results, res)
		cursor = cursor.Add(res.Duration)
	}

	return results
}

// PlayRandom plays one key chosen uniformly at random
func (e *Engine) PlayRandom(ctx context.Context, keys []string, opts PlayOptions) PlayResult {
	if len(keys) == 0 {
		return PlayResult{}
	}
	return e.Play(ctx, keys[rand.Intn(len(keys))], opts)
}

// Stop releases every active voice of the key. A zero fadeOut uses the
// voice's own FadeOut option; stopping a silent key is a no-op.
func (e *Engine) Stop(key string, fadeOut time.Duration) {
	e.mu.Lock()
	voices := pruneVoices(e.voices[key])
	e.voices[key] = nil
	e.mu.Unlock()

	for _, av := range voices {
		fade := fadeOut
		if fade <= 0 {
			fade = av.defaultFade
		}
		av.voice.Stop(fade)
	}

	if len(voices) > 0 {
		e.events.Publish(Event{Type: EventStop, At: e.clock.Now(), Key: key})
	}
}

// StopAll immediately stops every voice across all keys
func (e *Engine) StopAll() {
	e.mu.Lock()
	backend := e.backend
	e.voices = make(map[string][]activeVoice)
	e.mu.Unlock()

	if backend != nil {
		backend.StopAll()
	}
	e.events.Publish(Event{Type: EventStop, At: e.clock.Now()})
}

// ActiveVoices returns the number of live voices for a key
func (e *Engine) ActiveVoices(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	pruned := pruneVoices(e.voices[key])
	e.voices[key] = pruned
	return len(pruned)
}

func pruneVoices(voices []activeVoice) []activeVoice {
	live := voices[:0]
	for _, av := range voices {
		if av.voice.Active() {
			live = append(live, av)
		}
	}
	return live
}

// SetVolume clamps to [0,1], persists and applies to the master gain
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	if e.prefs == nil {
		e.mu.Unlock()
		return
	}
	e.volume = e.prefs.SetVolume(v)
	e.mu.Unlock()

	e.applyMasterGain()
	e.publishState()
}

// Mute silences or restores the master gain and persists the flag
func (e *Engine) Mute(muted bool) {
	e.mu.Lock()
	if e.prefs == nil {
		e.mu.Unlock()
		return
	}
	e.muted = muted
	e.prefs.SetMuted(muted)
	e.mu.Unlock()

	e.applyMasterGain()
	e.publishState()
}

// Enable allows playback again after Disable
func (e *Engine) Enable() {
	e.mu.Lock()
	if e.prefs == nil {
		e.mu.Unlock()
		return
	}
	e.enabled = true
	e.prefs.SetEnabled(true)
	e.mu.Unlock()
	e.publishState()
}

// Disable gates Play and stops everything currently audible
func (e *Engine) Disable() {
	e.mu.Lock()
	if e.prefs == nil {
		e.mu.Unlock()
		return
	}
	e.enabled = false
	e.prefs.SetEnabled(false)
	e.mu.Unlock()

	e.StopAll()
	e.publishState()
}

// Resume marks a user gesture observed and unblocks the output device.
// Until this runs, Play degrades to a logged no-op by platform policy.
func (e *Engine) Resume() error {
	e.mu.Lock()
	backend := e.backend
	e.mu.Unlock()

	if backend == nil {
		return newError(CodeInitializationFailed, "", fmt.Errorf("engine not initialized"))
	}
	if err := backend.Resume(); err != nil {
		e.publishError(CodeAutoplayBlocked, "", err)
		return newError(CodeAutoplayBlocked, "", err)
	}

	e.mu.Lock()
	e.resumed = true
	e.mu.Unlock()

	e.publishState()
	return nil
}

// Status returns a snapshot of the engine state
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		Initialized:  e.initialized,
		Enabled:      e.enabled,
		Muted:        e.muted,
		MasterVolume: e.volume,
		CanAutoplay:  e.resumed,
	}
	if e.backend != nil {
		s.ActiveBackend = e.backend.Name()
	}
	if e.loader != nil {
		s.LoadedAssets = e.loader.Loaded()
		s.FailedAssets = e.loader.Failed()
	}
	return s
}

// Events returns the engine's event bus
func (e *Engine) Events() *Bus {
	return e.events
}

// Load explicitly loads one key, retrying a previously failed one
func (e *Engine) Load(ctx context.Context, key string) LoadResult {
	e.mu.Lock()
	loader := e.loader
	e.mu.Unlock()
	if loader == nil {
		return LoadResult{Key: key, Err: newError(CodeInitializationFailed, key, fmt.Errorf("engine not initialized"))}
	}

	res := loader.Load(ctx, key)
	e.publishLoad(res)
	return res
}

// Preload loads a batch of keys concurrently
func (e *Engine) Preload(ctx context.Context, keys []string) []LoadResult {
	e.mu.Lock()
	loader := e.loader
	e.mu.Unlock()
	if loader == nil {
		return nil
	}

	results := loader.Preload(ctx, keys)
	for _, res := range results {
		e.publishLoad(res)
	}
	return results
}

// Duration returns the best known duration for a key: measured when
// loaded, otherwise the manifest hint
func (e *Engine) Duration(key string) time.Duration {
	return e.durationHint(key)
}

// Close disposes the engine; further Play calls are silent no-ops
func (e *Engine) Close() error {
	e.mu.Lock()
	backend := e.backend
	e.initialized = false
	e.backend = nil
	e.voices = make(map[string][]activeVoice)
	e.mu.Unlock()

	if backend != nil {
		return backend.Close()
	}
	return nil
}

func (e *Engine) durationHint(key string) time.Duration {
	e.mu.Lock()
	loader := e.loader
	manifest := e.manifest
	e.mu.Unlock()

	if loader != nil {
		if d := loader.Duration(key); d > 0 {
			return d
		}
	}
	if manifest != nil {
		return manifest.DurationHint(key)
	}
	return 0
}

func (e *Engine) applyMasterGain() {
	e.mu.Lock()
	backend := e.backend
	gain := e.volume
	if e.muted {
		gain = 0
	}
	e.mu.Unlock()

	if backend != nil {
		backend.SetMasterGain(gain)
	}
}

func (e *Engine) publishState() {
	s := e.Status()
	e.events.Publish(Event{Type: EventState, At: e.clock.Now(), State: &s})
}

func (e *Engine) publishLoad(res LoadResult) {
	if res.Success {
		e.events.Publish(Event{Type: EventLoad, At: e.clock.Now(), Key: res.Key})
		return
	}

	code := CodeLoadFailed
	var cerr *Error
	if errors.As(res.Err, &cerr) {
		code = cerr.Code
	}
	e.publishError(code, res.Key, res.Err)
}

func (e *Engine) publishError(code Code, key string, err error) {
	e.log.Warn().Str("key", key).Str("code", string(code)).Err(err).Msg("engine error")
	e.events.Publish(Event{Type: EventError, At: e.clock.Now(), Key: key, Code: code, Err: errString(err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
