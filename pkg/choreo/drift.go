// ABOUTME: Timing event recorder and audio-visual drift analysis
// ABOUTME: Measures how far audio triggers land from their visual beats
package choreo

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDriftTolerance is the drift error under which a pair still
// reads as synchronized to a viewer
const DefaultDriftTolerance = 50 * time.Millisecond

// Kind classifies timing events
type Kind string

const (
	KindAudio  Kind = "audio"
	KindVisual Kind = "visual"
	KindSystem Kind = "system"
)

// TimingEvent is one recorded occurrence with its offset from the
// recorder's anchor
type TimingEvent struct {
	Kind    Kind          `json:"kind"`
	At      time.Time     `json:"at"`
	Offset  time.Duration `json:"offset"`
	Name    string        `json:"name"`
	Details string        `json:"details,omitempty"`
}

// Recorder captures timing events against a single anchor point so
// audio and visual moments share one time base
type Recorder struct {
	clock clockwork.Clock

	mu     sync.Mutex
	anchor time.Time
	events []TimingEvent
}

// NewRecorder creates a recorder anchored at the current time
func NewRecorder(clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{clock: clock, anchor: clock.Now()}
}

// Reset re-anchors the recorder and drops recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchor = r.clock.Now()
	r.events = nil
}

// LogAudioTrigger records an audio cue firing
func (r *Recorder) LogAudioTrigger(name, details string) {
	r.log(KindAudio, name, details)
}

// LogVisualEvent records a visual moment (animation frame, phase change)
func (r *Recorder) LogVisualEvent(name, details string) {
	r.log(KindVisual, name, details)
}

// LogSystem records a system occurrence for context in reports
func (r *Recorder) LogSystem(name, details string) {
	r.log(KindSystem, name, details)
}

func (r *Recorder) log(kind Kind, name, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	r.events = append(r.events, TimingEvent{
		Kind:    kind,
		At:      now,
		Offset:  now.Sub(r.anchor),
		Name:    name,
		Details: details,
	})
}

// Events returns a copy of the recorded events in order
func (r *Recorder) Events() []TimingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TimingEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) find(kind Kind, name string) (TimingEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Kind == kind && ev.Name == name {
			return ev, true
		}
	}
	return TimingEvent{}, false
}

// DriftResult compares one audio trigger against one visual event.
// ActualDrift is audio minus visual: negative means the audio fired
// after the visual moment.
type DriftResult struct {
	AudioOffset     time.Duration
	VisualOffset    time.Duration
	ExpectedDrift   time.Duration
	ActualDrift     time.Duration
	DriftError      time.Duration
	WithinTolerance bool
}

// AnalyzeSyncDrift measures the drift between a named audio trigger and
// a named visual event against the expected offset
func (r *Recorder) AnalyzeSyncDrift(audioName, visualName string, expected time.Duration) (DriftResult, error) {
	audio, ok := r.find(KindAudio, audioName)
	if !ok {
		return DriftResult{}, fmt.Errorf("no audio event %q recorded", audioName)
	}
	visual, ok := r.find(KindVisual, visualName)
	if !ok {
		return DriftResult{}, fmt.Errorf("no visual event %q recorded", visualName)
	}

	actual := audio.Offset - visual.Offset
	errAmount := actual - expected
	if errAmount < 0 {
		errAmount = -errAmount
	}

	return DriftResult{
		AudioOffset:     audio.Offset,
		VisualOffset:    visual.Offset,
		ExpectedDrift:   expected,
		ActualDrift:     actual,
		DriftError:      errAmount,
		WithinTolerance: errAmount <= DefaultDriftTolerance,
	}, nil
}

// ReportPair is one matched audio/visual name in a report
type ReportPair struct {
	Name   string
	Result DriftResult
}

// Report summarizes recorded timing quality
type Report struct {
	TotalEvents  int
	AudioEvents  int
	VisualEvents int
	Pairs        []ReportPair
	AvgDriftErr  time.Duration
	MaxDriftErr  time.Duration
	SyncAccuracy float64 // percent of pairs within tolerance
}

// GenerateReport pairs audio and visual events by name and summarizes
// their drift. Unpaired events count toward totals only.
func (r *Recorder) GenerateReport() Report {
	events := r.Events()

	report := Report{TotalEvents: len(events)}
	seen := make(map[string]bool)

	for _, ev := range events {
		switch ev.Kind {
		case KindAudio:
			report.AudioEvents++
		case KindVisual:
			report.VisualEvents++
		}
	}

	var totalErr time.Duration
	for _, ev := range events {
		if ev.Kind != KindAudio || seen[ev.Name] {
			continue
		}
		seen[ev.Name] = true

		res, err := r.AnalyzeSyncDrift(ev.Name, ev.Name, 0)
		if err != nil {
			continue
		}

		report.Pairs = append(report.Pairs, ReportPair{Name: ev.Name, Result: res})
		totalErr += res.DriftError
		if res.DriftError > report.MaxDriftErr {
			report.MaxDriftErr = res.DriftError
		}
	}

	if n := len(report.Pairs); n > 0 {
		report.AvgDriftErr = totalErr / time.Duration(n)
		within := 0
		for _, p := range report.Pairs {
			if p.Result.WithinTolerance {
				within++
			}
		}
		report.SyncAccuracy = float64(within) / float64(n) * 100
	}

	return report
}
