// ABOUTME: Error taxonomy for the cue engine
// ABOUTME: Coded errors surfaced through results and events, not panics
package cue

import "fmt"

// Code classifies engine failures. Only CodeInitializationFailed
// propagates as a returned error from the public API; everything else
// is caught internally and surfaced via result shapes and error events.
type Code string

const (
	CodeInitializationFailed Code = "INITIALIZATION_FAILED"
	CodeNotFound             Code = "NOT_FOUND"
	CodeLoadFailed           Code = "LOAD_FAILED"
	CodePlayFailed           Code = "PLAY_FAILED"
	CodeAutoplayBlocked      Code = "AUTOPLAY_BLOCKED"
)

// Error is a coded engine error, optionally scoped to an asset key
type Error struct {
	Code Code
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, key string, err error) *Error {
	return &Error{Code: code, Key: key, Err: err}
}
