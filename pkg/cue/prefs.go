// ABOUTME: Durable playback preferences
// ABOUTME: Persists enabled/volume/muted across sessions, write-through
package cue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Preferences are the durable playback settings
type Preferences struct {
	Enabled      bool    `json:"enabled"`
	MasterVolume float64 `json:"masterVolume"`
	Muted        bool    `json:"muted"`
}

func defaultPreferences() Preferences {
	return Preferences{Enabled: true, MasterVolume: 1.0, Muted: false}
}

// PrefStore persists preferences to a JSON file. Every mutation writes
// through before returning so a later Init restores the exact state.
type PrefStore struct {
	mu    sync.Mutex
	path  string
	prefs Preferences
	log   zerolog.Logger
}

// DefaultPrefsPath returns the per-user preference file location
func DefaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "soundcue", "prefs.json")
}

// OpenPrefStore loads preferences from path, falling back to defaults
// when the file is missing or unreadable
func OpenPrefStore(path string, logger zerolog.Logger) *PrefStore {
	s := &PrefStore{path: path, prefs: defaultPreferences(), log: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Str("path", path).Err(err).Msg("failed to read preferences, using defaults")
		}
		return s
	}

	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("corrupt preferences, using defaults")
		return s
	}

	s.prefs = p
	s.prefs.MasterVolume = clamp01(s.prefs.MasterVolume)
	return s
}

// Get returns the current preferences
func (s *PrefStore) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetVolume clamps to [0,1], persists and returns the stored value
func (s *PrefStore) SetVolume(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.MasterVolume = clamp01(v)
	s.persist()
	return s.prefs.MasterVolume
}

// SetMuted persists the mute flag
func (s *PrefStore) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Muted = muted
	s.persist()
}

// SetEnabled persists the enabled flag
func (s *PrefStore) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Enabled = enabled
	s.persist()
}

// persist writes the preference file; callers hold the lock.
// Write failures keep the in-memory state and are logged, not returned.
func (s *PrefStore) persist() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Error().Str("path", s.path).Err(err).Msg("failed to create preference dir")
		return
	}

	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode preferences")
		return
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error().Str("path", s.path).Err(err).Msg("failed to write preferences")
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
