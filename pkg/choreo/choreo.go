// ABOUTME: Choreography timelines: named cue sequences with sync constraints
// ABOUTME: YAML model, static validation and the built-in reveal timeline
package choreo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soundcue/soundcue-go/pkg/cue"
)

// Entry actions
const (
	ActionPlay = "play"
	ActionStop = "stop"
)

// Outcome conditions gate result entries to one branch of a reveal
const (
	ConditionWinner = "winner"
	ConditionLoser  = "loser"
)

// Entry is one timed cue in a timeline. Offsets are milliseconds from
// the timeline start. CriticalSync marks entries whose audible moment
// must land on the visual beat; the runner schedules those absolutely.
type Entry struct {
	OffsetMs     int     `yaml:"offset"`
	Key          string  `yaml:"key"`
	Action       string  `yaml:"action,omitempty"` // defaults to play
	Volume       float64 `yaml:"volume,omitempty"`
	Loop         bool    `yaml:"loop,omitempty"`
	FadeInMs     int     `yaml:"fadeIn,omitempty"`
	FadeOutMs    int     `yaml:"fadeOut,omitempty"`
	CriticalSync bool    `yaml:"criticalSync,omitempty"`
	Condition    string  `yaml:"condition,omitempty"`
	Result       bool    `yaml:"result,omitempty"`
}

func (e Entry) action() string {
	if e.Action == "" {
		return ActionPlay
	}
	return e.Action
}

// Offset returns the entry offset as a duration
func (e Entry) Offset() time.Duration {
	return time.Duration(e.OffsetMs) * time.Millisecond
}

// Timeline is an ordered cue sequence. TerminalPhaseMs is when the
// visual side commits to its outcome; result cues must not sound
// before it.
type Timeline struct {
	Name            string  `yaml:"name"`
	TerminalPhaseMs int     `yaml:"terminalPhase"`
	Entries         []Entry `yaml:"entries"`
}

// ParseTimeline decodes a YAML timeline
func ParseTimeline(data []byte) (*Timeline, error) {
	var tl Timeline
	if err := yaml.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("failed to parse timeline: %w", err)
	}
	return &tl, nil
}

// LoadTimeline reads and decodes a YAML timeline file
func LoadTimeline(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	return ParseTimeline(data)
}

// ValidationResult aggregates static findings. Errors make the timeline
// unusable; warnings flag sync risks worth reviewing.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs the structural and sync-constraint checks
func (tl *Timeline) Validate() ValidationResult {
	return tl.validate(nil)
}

// ValidateWithManifest additionally checks every cue key against the
// asset manifest
func (tl *Timeline) ValidateWithManifest(m *cue.Manifest) ValidationResult {
	return tl.validate(m)
}

func (tl *Timeline) validate(m *cue.Manifest) ValidationResult {
	var r ValidationResult

	if tl.Name == "" {
		r.errorf("timeline has no name")
	}
	if len(tl.Entries) == 0 {
		r.errorf("timeline has no entries")
	}

	for i, e := range tl.Entries {
		if e.Key == "" {
			r.errorf("entry %d has no key", i)
		}
		if e.OffsetMs < 0 {
			r.errorf("entry %d (%s) has negative offset %dms", i, e.Key, e.OffsetMs)
		}
		switch e.action() {
		case ActionPlay, ActionStop:
		default:
			r.errorf("entry %d (%s) has unknown action %q", i, e.Key, e.Action)
		}
		if e.Condition != "" && e.Condition != ConditionWinner && e.Condition != ConditionLoser {
			r.errorf("entry %d (%s) has unknown condition %q", i, e.Key, e.Condition)
		}
		if m != nil && !m.Has(e.Key) {
			r.errorf("entry %d references unknown asset %q", i, e.Key)
		}

		if e.Result && e.OffsetMs < tl.TerminalPhaseMs {
			r.errorf("result cue %q at %dms sounds before the terminal phase at %dms",
				e.Key, e.OffsetMs, tl.TerminalPhaseMs)
		}
	}

	tl.checkStopClearance(&r)

	r.Valid = len(r.Errors) == 0
	return r
}

// checkStopClearance verifies that every stop lands strictly before the
// next critical-sync cue, and that its fade tail leaves enough room.
// A tail still audible under the critical hit blurs the moment the
// choreography exists to nail.
func (tl *Timeline) checkStopClearance(r *ValidationResult) {
	for _, stop := range tl.Entries {
		if stop.action() != ActionStop {
			continue
		}

		for _, crit := range tl.Entries {
			if !crit.CriticalSync || crit.action() != ActionPlay || crit.Key == stop.Key {
				continue
			}
			if crit.OffsetMs <= stop.OffsetMs-stop.FadeOutMs {
				// Critical cue already passed by the time the stop begins
				continue
			}

			if stop.OffsetMs >= crit.OffsetMs {
				r.errorf("stop of %q at %dms is not strictly before critical cue %q at %dms",
					stop.Key, stop.OffsetMs, crit.Key, crit.OffsetMs)
				continue
			}

			gap := crit.OffsetMs - stop.OffsetMs
			if stop.FadeOutMs > 0 && gap < stop.FadeOutMs/2 {
				r.warnf("stop of %q fades %dms but only %dms before critical cue %q; the tail may overlap",
					stop.Key, stop.FadeOutMs, gap, crit.Key)
			}
		}
	}
}

// WinnerReveal is the built-in reveal timeline: a riser under the
// buildup, a cut 200ms before the hit so the tail clears, the hit on
// the visual beat, and the outcome cue after the terminal phase.
func WinnerReveal() *Timeline {
	return &Timeline{
		Name:            "winner-reveal",
		TerminalPhaseMs: 2500,
		Entries: []Entry{
			{OffsetMs: 0, Key: "riser", FadeInMs: 200},
			{OffsetMs: 1800, Key: "riser", Action: ActionStop, FadeOutMs: 300},
			{OffsetMs: 2000, Key: "explosion", CriticalSync: true},
			{OffsetMs: 2600, Key: "result_win", Condition: ConditionWinner, Result: true},
			{OffsetMs: 2600, Key: "result_lose", Condition: ConditionLoser, Result: true},
		},
	}
}
