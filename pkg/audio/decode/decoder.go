// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders
package decode

import (
	"fmt"

	"github.com/soundcue/soundcue-go/pkg/audio"
)

// Decoder decodes a complete encoded asset to an interleaved PCM clip
type Decoder interface {
	// Decode converts encoded audio data to a PCM clip
	Decode(data []byte) (*audio.Clip, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the given codec name.
// Opus uses the default 48kHz stereo packet format; use NewOpus for others.
func New(codec string) (Decoder, error) {
	switch codec {
	case "wav":
		return NewWAV(), nil
	case "mp3":
		return NewMP3(), nil
	case "flac":
		return NewFLAC(), nil
	case "opus":
		return NewOpus(48000, 2)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}
