// ABOUTME: Tests for manifest parsing and validation
// ABOUTME: Covers structural checks, duration hints and group volumes
package cue

import (
	"testing"
	"time"
)

func validManifestJSON() []byte {
	return []byte(`{
		"assets": {
			"tick": ["sounds/tick.wav", "sounds/tick.mp3"],
			"win":  ["sounds/win.flac"]
		},
		"preload": ["tick"],
		"groups": {
			"ui": {"volume": 0.5, "keys": ["tick"]}
		},
		"durations": {"win": 2600}
	}`)
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(validManifestJSON())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !m.Has("tick") || !m.Has("win") {
		t.Error("expected tick and win assets")
	}
	if got := m.Sources("tick"); len(got) != 2 || got[0] != "sounds/tick.wav" {
		t.Errorf("unexpected sources for tick: %v", got)
	}
	if m.Has("missing") {
		t.Error("expected Has to be false for unknown key")
	}
}

func TestParseManifestRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"no assets", `{"assets": {}}`},
		{"empty sources", `{"assets": {"tick": []}}`},
		{"unknown preload", `{"assets": {"tick": ["t.wav"]}, "preload": ["boom"]}`},
		{"volume out of range", `{"assets": {"tick": ["t.wav"]}, "groups": {"ui": {"volume": 1.5, "keys": ["tick"]}}}`},
		{"unknown group key", `{"assets": {"tick": ["t.wav"]}, "groups": {"ui": {"volume": 0.5, "keys": ["boom"]}}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tc.json)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurationHint(t *testing.T) {
	m, err := ParseManifest(validManifestJSON())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.DurationHint("win"); got != 2600*time.Millisecond {
		t.Errorf("expected 2600ms hint, got %v", got)
	}
	if got := m.DurationHint("tick"); got != 0 {
		t.Errorf("expected 0 for missing hint, got %v", got)
	}
}

func TestGroupVolume(t *testing.T) {
	m, err := ParseManifest(validManifestJSON())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.GroupVolume("tick"); got != 0.5 {
		t.Errorf("expected 0.5 for grouped key, got %v", got)
	}
	if got := m.GroupVolume("win"); got != 1.0 {
		t.Errorf("expected 1.0 for ungrouped key, got %v", got)
	}
}
