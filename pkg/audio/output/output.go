// ABOUTME: Audio output interface definitions
// ABOUTME: Stream device for the mixer and player factory for clip playback
package output

import "io"

// Output represents a continuous audio output device. The mixer feeds it
// fixed-size PCM blocks; Write blocking at the device rate is what paces
// the render loop.
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Resume unblocks a device suspended by platform policy
	Resume() error

	// Close releases output resources
	Close() error
}

// Player is a single one-shot playable stream
type Player interface {
	Play()
	Pause()
	SetVolume(v float64)
	IsPlaying() bool
	Close() error
}

// PlayerContext creates independent players over PCM readers.
// Used by the clip backend, which clones one player per play call.
type PlayerContext interface {
	NewPlayer(r io.Reader) Player
	Resume() error
	Close() error
}
