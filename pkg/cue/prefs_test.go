// ABOUTME: Tests for the preference store
// ABOUTME: Covers defaults, clamping, persistence roundtrip and corrupt files
package cue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestPrefsDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s := OpenPrefStore(path, zerolog.Nop())
	p := s.Get()

	if !p.Enabled {
		t.Error("expected enabled by default")
	}
	if p.MasterVolume != 1.0 {
		t.Errorf("expected volume 1.0, got %v", p.MasterVolume)
	}
	if p.Muted {
		t.Error("expected unmuted by default")
	}
}

func TestPrefsRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s := OpenPrefStore(path, zerolog.Nop())
	s.SetVolume(0.3)
	s.SetMuted(true)
	s.SetEnabled(false)

	// A fresh store must see the persisted state
	reopened := OpenPrefStore(path, zerolog.Nop())
	p := reopened.Get()

	if p.MasterVolume != 0.3 {
		t.Errorf("expected volume 0.3, got %v", p.MasterVolume)
	}
	if !p.Muted {
		t.Error("expected muted")
	}
	if p.Enabled {
		t.Error("expected disabled")
	}
}

func TestPrefsVolumeClamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	s := OpenPrefStore(path, zerolog.Nop())

	if got := s.SetVolume(-0.5); got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
	if got := s.SetVolume(1.8); got != 1 {
		t.Errorf("expected clamp to 1, got %v", got)
	}
}

func TestPrefsCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s := OpenPrefStore(path, zerolog.Nop())
	p := s.Get()

	if !p.Enabled || p.MasterVolume != 1.0 || p.Muted {
		t.Errorf("expected defaults for corrupt file, got %+v", p)
	}
}
