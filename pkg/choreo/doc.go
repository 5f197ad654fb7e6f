// ABOUTME: Package documentation for choreography
// ABOUTME: Timelines, validation, the runner and drift analysis

// Package choreo coordinates audio cues with visual sequences. A
// Timeline names timed entries with sync constraints, Validate catches
// ordering mistakes before they reach a screen, the Runner drives the
// cue engine from a timeline, and the Recorder measures how far audio
// triggers actually landed from their visual beats.
package choreo
