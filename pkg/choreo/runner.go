// ABOUTME: Timeline runner driving the cue engine from choreography entries
// ABOUTME: Critical cues schedule absolutely; stops fire at their offsets
package choreo

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/soundcue/soundcue-go/pkg/cue"
)

// Player is the slice of the cue engine the runner drives
type Player interface {
	Play(ctx context.Context, key string, opts cue.PlayOptions) cue.PlayResult
	Stop(key string, fadeOut time.Duration)
}

// Runner executes a timeline against a player, recording every trigger
// so drift against the visual side can be analyzed afterwards
type Runner struct {
	player Player
	clock  clockwork.Clock
	rec    *Recorder
	log    zerolog.Logger
}

// NewRunner creates a runner over a player and recorder
func NewRunner(player Player, clock clockwork.Clock, rec *Recorder, logger zerolog.Logger) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rec == nil {
		rec = NewRecorder(clock)
	}
	return &Runner{player: player, clock: clock, rec: rec, log: logger}
}

// Recorder returns the runner's timing recorder
func (r *Runner) Recorder() *Recorder { return r.rec }

// Run starts a timeline. Play entries are committed immediately with
// their target times; critical-sync entries get absolute targets so the
// backend clock, not goroutine wakeups, decides when they sound. Stop
// entries fire at their offsets until ctx is cancelled. Run does not
// block for the timeline to finish.
func (r *Runner) Run(ctx context.Context, tl *Timeline, outcome string) []cue.PlayResult {
	base := r.clock.Now()
	r.rec.Reset()

	var results []cue.PlayResult
	for _, entry := range tl.Entries {
		if entry.Condition != "" && entry.Condition != outcome {
			continue
		}

		switch entry.action() {
		case ActionPlay:
			results = append(results, r.play(ctx, base, entry))
		case ActionStop:
			go r.stopAt(ctx, entry)
		}
	}

	r.log.Debug().Str("timeline", tl.Name).Str("outcome", outcome).
		Int("cues", len(results)).Msg("timeline started")
	return results
}

func (r *Runner) play(ctx context.Context, base time.Time, entry Entry) cue.PlayResult {
	opts := cue.PlayOptions{
		Volume:  entry.Volume,
		Loop:    entry.Loop,
		FadeIn:  time.Duration(entry.FadeInMs) * time.Millisecond,
		FadeOut: time.Duration(entry.FadeOutMs) * time.Millisecond,
	}
	if entry.CriticalSync {
		opts.ScheduleAt = base.Add(entry.Offset())
	} else {
		opts.Delay = entry.Offset()
	}

	res := r.player.Play(ctx, entry.Key, opts)

	// Record the trigger at its audible offset, not the issue time
	go func() {
		if entry.OffsetMs > 0 {
			select {
			case <-r.clock.After(entry.Offset()):
			case <-ctx.Done():
				return
			}
		}
		r.rec.LogAudioTrigger(entry.Key, "")
	}()

	return res
}

func (r *Runner) stopAt(ctx context.Context, entry Entry) {
	if entry.OffsetMs > 0 {
		select {
		case <-r.clock.After(entry.Offset()):
		case <-ctx.Done():
			return
		}
	}
	r.player.Stop(entry.Key, time.Duration(entry.FadeOutMs)*time.Millisecond)
	r.rec.LogSystem("stop:"+entry.Key, "")
}

// VisualPhase records a visual moment on the shared time base. The
// visual layer calls this as its animation phases land.
func (r *Runner) VisualPhase(name, details string) {
	r.rec.LogVisualEvent(name, details)
}
