// ABOUTME: Tests for the duration analyzer
// ABOUTME: Tests measurement accuracy, caching and batch aggregation
package analyze

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// writeWAV writes a 16-bit PCM WAV fixture and returns its path
func writeWAV(t *testing.T, dir, name string, sampleRate, channels, frames int) string {
	t.Helper()

	payload := make([]byte, frames*channels*2)
	data := []byte("RIFF")
	data = append32(data, uint32(36+len(payload)))
	data = append(data, []byte("WAVE")...)
	data = append(data, []byte("fmt ")...)
	data = append32(data, 16)
	data = append16(data, 1)
	data = append16(data, uint16(channels))
	data = append32(data, uint32(sampleRate))
	data = append32(data, uint32(sampleRate*channels*2))
	data = append16(data, uint16(channels*2))
	data = append16(data, 16)
	data = append(data, []byte("data")...)
	data = append32(data, uint32(len(payload)))
	data = append(data, payload...)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func append32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}

func append16(b []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(b, buf[:]...)
}

func TestMeasureExactDuration(t *testing.T) {
	dir := t.TempDir()
	// 500ms of stereo at 44.1kHz
	path := writeWAV(t, dir, "tick.wav", 44100, 2, 22050)

	a := NewAnalyzer(nil, zerolog.Nop())
	res := a.Measure(context.Background(), path)

	if !res.Success {
		t.Fatalf("expected success, got reason: %s", res.Reason)
	}
	if res.Duration != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", res.Duration)
	}
	if res.SampleRate != 44100 {
		t.Errorf("expected 44100 Hz, got %d", res.SampleRate)
	}
	if res.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", res.Channels)
	}
	if res.Format != "wav" {
		t.Errorf("expected wav format, got %s", res.Format)
	}
}

func TestMeasureIsCached(t *testing.T) {
	dir := t.TempDir()
	path := writeWAV(t, dir, "tick.wav", 48000, 1, 4800)

	a := NewAnalyzer(nil, zerolog.Nop())
	first := a.Measure(context.Background(), path)

	// Delete the file; a second call must come from the cache
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove fixture: %v", err)
	}

	second := a.Measure(context.Background(), path)
	if first != second {
		t.Errorf("expected cached result to equal first result:\n first=%+v\nsecond=%+v", first, second)
	}
	if !second.Success {
		t.Error("expected cached result to be successful")
	}
}

func TestMeasureFailureDoesNotError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(path, []byte("not a wav"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	a := NewAnalyzer(nil, zerolog.Nop())
	res := a.Measure(context.Background(), path)

	if res.Success {
		t.Fatal("expected failure for malformed file")
	}
	if res.Reason == "" {
		t.Error("expected an explanatory reason")
	}
}

func TestMeasureUnknownFormat(t *testing.T) {
	a := NewAnalyzer(nil, zerolog.Nop())
	res := a.Measure(context.Background(), "sounds/tick.xyz")

	if res.Success {
		t.Fatal("expected failure for unknown format")
	}
	if res.Reason != "unknown format" {
		t.Errorf("expected 'unknown format' reason, got %q", res.Reason)
	}
}

func TestMeasureBatch(t *testing.T) {
	dir := t.TempDir()
	good1 := writeWAV(t, dir, "a.wav", 48000, 2, 9600)
	good2 := writeWAV(t, dir, "b.wav", 48000, 2, 4800)
	bad := filepath.Join(dir, "missing.wav")

	a := NewAnalyzer(nil, zerolog.Nop())
	report := a.MeasureBatch(context.Background(), []string{good1, good2, bad})

	if report.TotalAnalyzed != 3 {
		t.Errorf("expected 3 analyzed, got %d", report.TotalAnalyzed)
	}
	if report.SuccessCount != 2 {
		t.Errorf("expected 2 successes, got %d", report.SuccessCount)
	}
	if report.FailureCount != 1 {
		t.Errorf("expected 1 failure, got %d", report.FailureCount)
	}
	if len(report.Files) != 3 {
		t.Fatalf("expected 3 file results, got %d", len(report.Files))
	}

	// Results keep input order
	if report.Files[0].Path != good1 || report.Files[2].Path != bad {
		t.Error("expected results in input order")
	}
}
