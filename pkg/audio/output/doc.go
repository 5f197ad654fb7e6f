// ABOUTME: Audio output package
// ABOUTME: Device abstractions for continuous and per-clip playback
// Package output provides audio output device abstractions.
//
// Output is a continuous PCM stream (the mixer backend's substrate).
// PlayerContext creates independent one-shot players (the clip backend's
// substrate). Both have oto-based implementations and Capture provides a
// deviceless sink for tests.
package output
