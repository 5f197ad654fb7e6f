// ABOUTME: Tests for format negotiation
// ABOUTME: Tests codec probing, source ranking and extension mapping
package decode

import "testing"

func TestCodecForSource(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"sounds/tick.wav", "wav"},
		{"sounds/tick.mp3", "mp3"},
		{"sounds/tick.flac", "flac"},
		{"sounds/tick.opus", "opus"},
		{"sounds/TICK.WAV", "wav"},
		{"https://cdn.example.com/win.mp3?v=3", "mp3"},
		{"sounds/tick.ogg", ""},
		{"sounds/tick", ""},
	}

	for _, tt := range tests {
		if got := CodecForSource(tt.uri); got != tt.expected {
			t.Errorf("CodecForSource(%q): expected %q, got %q", tt.uri, tt.expected, got)
		}
	}
}

func TestNegotiatorSupportsCoreCodecs(t *testing.T) {
	n := NewNegotiator()

	// WAV, FLAC and MP3 are pure Go and always decodable
	for _, codec := range []string{"wav", "flac", "mp3"} {
		if !n.Supports(codec) {
			t.Errorf("expected %s to be supported", codec)
		}
	}
	if n.Supports("aac") {
		t.Error("expected aac to be unsupported")
	}
}

func TestNegotiatorRankPrefersLossless(t *testing.T) {
	n := NewNegotiator()

	ranked := n.Rank([]string{"tick.mp3", "tick.wav"})
	if len(ranked) < 2 {
		t.Fatalf("expected 2 ranked sources, got %d", len(ranked))
	}
	if ranked[0] != "tick.wav" {
		t.Errorf("expected tick.wav first, got %s", ranked[0])
	}
	if ranked[1] != "tick.mp3" {
		t.Errorf("expected tick.mp3 second, got %s", ranked[1])
	}
}

func TestNegotiatorRankDropsUnknown(t *testing.T) {
	n := NewNegotiator()

	ranked := n.Rank([]string{"tick.xyz", "tick.mp3"})
	for _, src := range ranked {
		if src == "tick.xyz" {
			t.Error("expected unknown-codec source to be dropped")
		}
	}
}

func TestNegotiatorPreferenceOrder(t *testing.T) {
	n := NewNegotiator()

	pref := n.Preference()
	if len(pref) == 0 {
		t.Fatal("expected at least one supported codec")
	}
	if pref[0] != "wav" {
		t.Errorf("expected wav as top preference, got %s", pref[0])
	}
}
