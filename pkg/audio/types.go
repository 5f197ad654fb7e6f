// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, decoded clips and sample helpers
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Clip represents a fully decoded sound asset as interleaved PCM.
// Samples are int32 in 24-bit range to support both 16-bit and 24-bit sources.
type Clip struct {
	Key     string
	Samples []int32
	Format  Format
}

// Frames returns the number of sample frames in the clip
func (c *Clip) Frames() int {
	if c.Format.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the playback duration of the clip
func (c *Clip) Duration() time.Duration {
	if c.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.Format.SampleRate)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// ScaleSample applies a gain factor to a single sample with clipping protection
func ScaleSample(sample int32, gain float64) int32 {
	scaled := int64(float64(sample) * gain)
	if scaled > Max24Bit {
		scaled = Max24Bit
	} else if scaled < Min24Bit {
		scaled = Min24Bit
	}
	return int32(scaled)
}

// ApplyGain scales all samples in place with clipping protection
func ApplyGain(samples []int32, gain float64) {
	for i, s := range samples {
		samples[i] = ScaleSample(s, gain)
	}
}
