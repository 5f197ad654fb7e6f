// ABOUTME: Opus audio decoder
// ABOUTME: Decodes raw Opus packets to int32 samples
package decode

import (
	"fmt"

	"github.com/soundcue/soundcue-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder decodes raw Opus packets. There is no Ogg container demuxing;
// assets using Opus must ship as bare packets.
type OpusDecoder struct {
	decoder    *opus.Decoder
	sampleRate int
	channels   int
}

// NewOpus creates a new Opus decoder for the given packet format
func NewOpus(sampleRate, channels int) (Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:    dec,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Decode converts a single Opus packet to int32 samples
func (d *OpusDecoder) Decode(data []byte) (*audio.Clip, error) {
	// Opus decoder outputs to int16 buffer; 5760 is the max frame size
	pcm16 := make([]int16, 5760*d.channels)

	n, err := d.decoder.Decode(data, pcm16)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	actualSamples := n * d.channels
	samples := make([]int32, actualSamples)
	for i := 0; i < actualSamples; i++ {
		samples[i] = audio.SampleFromInt16(pcm16[i])
	}

	return &audio.Clip{
		Samples: samples,
		Format: audio.Format{
			Codec:      "opus",
			SampleRate: d.sampleRate,
			Channels:   d.channels,
			BitDepth:   16,
		},
	}, nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
