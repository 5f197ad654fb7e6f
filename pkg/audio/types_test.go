// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion, gain scaling and clip math
package audio

import (
	"testing"
	"time"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906},
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative sign extended", [3]byte{0xFF, 0xFF, 0xFF}, -1},
		{"min", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestScaleSampleClamps(t *testing.T) {
	if got := ScaleSample(Max24Bit, 2.0); got != Max24Bit {
		t.Errorf("expected clamp to %d, got %d", Max24Bit, got)
	}
	if got := ScaleSample(Min24Bit, 2.0); got != Min24Bit {
		t.Errorf("expected clamp to %d, got %d", Min24Bit, got)
	}
	if got := ScaleSample(1000, 0.5); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestApplyGain(t *testing.T) {
	samples := []int32{100, -200, 400}
	ApplyGain(samples, 0.5)

	expected := []int32{50, -100, 200}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestClipDuration(t *testing.T) {
	clip := &Clip{
		Samples: make([]int32, 48000*2), // 1s of stereo at 48kHz
		Format:  Format{SampleRate: 48000, Channels: 2},
	}

	if clip.Frames() != 48000 {
		t.Errorf("expected 48000 frames, got %d", clip.Frames())
	}
	if clip.Duration() != time.Second {
		t.Errorf("expected 1s duration, got %v", clip.Duration())
	}
}

func TestClipDurationEmptyFormat(t *testing.T) {
	clip := &Clip{}
	if clip.Frames() != 0 {
		t.Errorf("expected 0 frames, got %d", clip.Frames())
	}
	if clip.Duration() != 0 {
		t.Errorf("expected 0 duration, got %v", clip.Duration())
	}
}
