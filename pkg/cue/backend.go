// ABOUTME: Playback backend abstraction
// ABOUTME: Voice lifecycle contract shared by the mixer and clip backends
package cue

import (
	"time"

	"github.com/soundcue/soundcue-go/pkg/audio"
)

// VoiceOptions control one scheduled voice. Gain is the final per-voice
// gain after group and option volumes are combined; the backend applies
// master gain on top. A zero StartAt means "now".
type VoiceOptions struct {
	Key     string
	Gain    float64
	Loop    bool
	StartAt time.Time
	FadeIn  time.Duration
}

// Voice is one in-flight playing instance of a clip. Multiple voices of
// the same key may coexist; each is independently stoppable.
type Voice interface {
	// ID is the unique voice identifier
	ID() string

	// Key is the asset key this voice plays
	Key() string

	// Stop releases the voice, ramping gain to zero over fadeOut first
	// when positive. Stopping a finished voice is a no-op.
	Stop(fadeOut time.Duration)

	// Active reports whether the voice is still scheduled or audible
	Active() bool
}

// Backend is the playback capability the engine schedules against.
// Selected once at Init; the engine never branches on the concrete type.
type Backend interface {
	// Name identifies the backend ("mixer" or "clip")
	Name() string

	// Start begins audio rendering
	Start() error

	// ScheduleVoice creates a voice for the clip. Backends without
	// absolute-clock scheduling treat StartAt as a relative delay.
	ScheduleVoice(clip *audio.Clip, opts VoiceOptions) (Voice, error)

	// SchedulesAbsolute reports whether StartAt is honored against a
	// real clock, which is what output latency compensation keys off
	SchedulesAbsolute() bool

	// SetMasterGain sets the shared output gain in [0,1]
	SetMasterGain(gain float64)

	// StopAll immediately stops every active voice
	StopAll()

	// Resume unblocks output suspended by platform autoplay policy
	Resume() error

	// Close releases backend resources
	Close() error
}
