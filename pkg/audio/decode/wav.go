// ABOUTME: WAV audio decoder
// ABOUTME: Parses RIFF/WAVE containers with 16-bit and 24-bit PCM payloads
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/soundcue/soundcue-go/pkg/audio"
)

// WAVDecoder decodes RIFF/WAVE PCM audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode parses a WAV container and converts its PCM payload to int32 samples
func (d *WAVDecoder) Decode(data []byte) (*audio.Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var format audio.Format
	var payload []byte
	haveFmt := false

	// Walk chunks; fmt must precede data
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			return nil, fmt.Errorf("truncated %s chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported WAV encoding %d (PCM only)", audioFormat)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			format.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			payload = data[body : body+chunkSize]
		}

		// Chunks are word aligned
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if payload == nil {
		return nil, fmt.Errorf("missing data chunk")
	}
	if format.Channels == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("invalid format: %d channels, %d Hz", format.Channels, format.SampleRate)
	}

	var samples []int32
	switch format.BitDepth {
	case 16:
		numSamples := len(payload) / 2
		samples = make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(payload[i*2:])))
		}
	case 24:
		numSamples := len(payload) / 3
		samples = make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.SampleFrom24Bit([3]byte{payload[i*3], payload[i*3+1], payload[i*3+2]})
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	format.Codec = "wav"
	return &audio.Clip{Samples: samples, Format: format}, nil
}

// Close releases resources
func (d *WAVDecoder) Close() error {
	return nil
}
