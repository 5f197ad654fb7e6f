// ABOUTME: Package documentation for the cue engine
// ABOUTME: Overview of the engine, backends, loader and event bus

// Package cue implements the audio cue engine: a manifest-driven loader,
// two playback backends behind one interface, and a scheduler with
// debounce, latency compensation, fades and polyphony.
//
// Construct an Engine with New, call Init with the asset manifest, and
// Resume after the first user interaction. Play never returns an error;
// expected no-sound conditions produce a default PlayResult and, where
// relevant, an event on the bus. The only fatal path is Init.
//
// The mixer backend renders a continuous stream and schedules voices on
// its own frame clock, so committed start times survive goroutine
// jitter. The clip backend clones a player per trigger and is the
// fallback when no continuous stream can be opened.
package cue
