// ABOUTME: Asset manifest model and validation
// ABOUTME: Maps logical sound keys to candidate sources and load hints
package cue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Group is a named volume bucket; member keys play scaled by Volume
type Group struct {
	Volume float64  `json:"volume"`
	Keys   []string `json:"keys"`
}

// Manifest maps logical sound keys to ordered candidate source URIs.
// Candidates are tried in manifest order after format negotiation;
// Durations and Types are optional per-key hints.
type Manifest struct {
	Groups    map[string]Group    `json:"groups"`
	Assets    map[string][]string `json:"assets"`
	Preload   []string            `json:"preload"`
	Durations map[string]int      `json:"durations"` // milliseconds
	Types     map[string]string   `json:"types"`
}

// ParseManifest decodes and validates a JSON manifest
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks internal consistency. Choreography keys are checked
// separately by the choreography validator, not here.
func (m *Manifest) Validate() error {
	if len(m.Assets) == 0 {
		return fmt.Errorf("manifest has no assets")
	}
	for key, sources := range m.Assets {
		if len(sources) == 0 {
			return fmt.Errorf("asset %q has no candidate sources", key)
		}
	}
	for _, key := range m.Preload {
		if !m.Has(key) {
			return fmt.Errorf("preload references unknown asset %q", key)
		}
	}
	for name, group := range m.Groups {
		if group.Volume < 0 || group.Volume > 1 {
			return fmt.Errorf("group %q volume %v out of range [0,1]", name, group.Volume)
		}
		for _, key := range group.Keys {
			if !m.Has(key) {
				return fmt.Errorf("group %q references unknown asset %q", name, key)
			}
		}
	}
	return nil
}

// Has reports whether the key exists in the manifest
func (m *Manifest) Has(key string) bool {
	_, ok := m.Assets[key]
	return ok
}

// Sources returns the ordered candidate sources for a key
func (m *Manifest) Sources(key string) []string {
	return m.Assets[key]
}

// DurationHint returns the declared duration hint, or 0 if absent
func (m *Manifest) DurationHint(key string) time.Duration {
	ms, ok := m.Durations[key]
	if !ok {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// GroupVolume returns the volume bucket multiplier for a key (1 if ungrouped)
func (m *Manifest) GroupVolume(key string) float64 {
	for _, group := range m.Groups {
		for _, k := range group.Keys {
			if k == key {
				return group.Volume
			}
		}
	}
	return 1.0
}
