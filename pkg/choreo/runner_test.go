// ABOUTME: Tests for the timeline runner
// ABOUTME: Verifies scheduling modes, conditions and timed stop delivery
package choreo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/soundcue/soundcue-go/pkg/cue"
)

type playCall struct {
	key  string
	opts cue.PlayOptions
}

type stopCall struct {
	key  string
	fade time.Duration
}

type fakeCuePlayer struct {
	mu    sync.Mutex
	plays []playCall
	stops []stopCall
}

func (p *fakeCuePlayer) Play(_ context.Context, key string, opts cue.PlayOptions) cue.PlayResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = append(p.plays, playCall{key: key, opts: opts})
	return cue.PlayResult{Key: key, Played: true}
}

func (p *fakeCuePlayer) Stop(key string, fade time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops = append(p.stops, stopCall{key: key, fade: fade})
}

func (p *fakeCuePlayer) playList() []playCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]playCall(nil), p.plays...)
}

func (p *fakeCuePlayer) stopList() []stopCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stopCall(nil), p.stops...)
}

func pollUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRunnerSchedulesTimeline(t *testing.T) {
	player := &fakeCuePlayer{}
	clock := clockwork.NewFakeClock()
	runner := NewRunner(player, clock, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := clock.Now()
	results := runner.Run(ctx, WinnerReveal(), ConditionWinner)

	// Play entries commit immediately: riser, explosion, result_win.
	// The loser branch is skipped.
	if len(results) != 3 {
		t.Fatalf("expected 3 play results, got %d", len(results))
	}

	plays := player.playList()
	if plays[0].key != "riser" || plays[1].key != "explosion" || plays[2].key != "result_win" {
		t.Fatalf("unexpected play order: %+v", plays)
	}

	// Critical cues get absolute targets; the rest relative delays
	if want := base.Add(2000 * time.Millisecond); !plays[1].opts.ScheduleAt.Equal(want) {
		t.Errorf("expected explosion at %v, got %v", want, plays[1].opts.ScheduleAt)
	}
	if plays[2].opts.Delay != 2600*time.Millisecond || !plays[2].opts.ScheduleAt.IsZero() {
		t.Errorf("expected result_win delayed 2600ms, got %+v", plays[2].opts)
	}
	if plays[0].opts.FadeIn != 200*time.Millisecond {
		t.Errorf("expected riser fade-in 200ms, got %v", plays[0].opts.FadeIn)
	}

	// The riser stop fires at its 1800ms offset with its fade
	if len(player.stopList()) != 0 {
		t.Fatal("expected no stop before its offset")
	}
	clock.BlockUntil(3) // riser stop + explosion and result_win trigger logs
	clock.Advance(1800 * time.Millisecond)

	pollUntil(t, func() bool { return len(player.stopList()) == 1 }, "expected riser stop at 1800ms")
	stop := player.stopList()[0]
	if stop.key != "riser" || stop.fade != 300*time.Millisecond {
		t.Errorf("unexpected stop %+v", stop)
	}
}

func TestRunnerRecordsTriggersAtOffsets(t *testing.T) {
	player := &fakeCuePlayer{}
	clock := clockwork.NewFakeClock()
	runner := NewRunner(player, clock, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tl := &Timeline{
		Name: "two",
		Entries: []Entry{
			{OffsetMs: 0, Key: "riser"},
			{OffsetMs: 2000, Key: "explosion", CriticalSync: true},
		},
	}
	runner.Run(ctx, tl, "")

	rec := runner.Recorder()
	pollUntil(t, func() bool { return len(rec.Events()) == 1 }, "expected immediate riser trigger")

	clock.BlockUntil(1)
	clock.Advance(2000 * time.Millisecond)
	pollUntil(t, func() bool { return len(rec.Events()) == 2 }, "expected explosion trigger at 2000ms")

	events := rec.Events()
	if events[1].Name != "explosion" || events[1].Offset != 2000*time.Millisecond {
		t.Errorf("unexpected trigger event %+v", events[1])
	}

	// Visual moments land on the same time base
	clock.Advance(10 * time.Millisecond)
	runner.VisualPhase("explosion", "flash frame")

	res, err := rec.AnalyzeSyncDrift("explosion", "explosion", 0)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.ActualDrift != -10*time.Millisecond || !res.WithinTolerance {
		t.Errorf("unexpected drift %+v", res)
	}
}

func TestRunnerCancellationStopsPendingEntries(t *testing.T) {
	player := &fakeCuePlayer{}
	clock := clockwork.NewFakeClock()
	runner := NewRunner(player, clock, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	tl := &Timeline{
		Name: "cancel",
		Entries: []Entry{
			{OffsetMs: 0, Key: "drone", Loop: true},
			{OffsetMs: 5000, Key: "drone", Action: ActionStop},
		},
	}
	runner.Run(ctx, tl, "")

	clock.BlockUntil(1)
	cancel()

	// The stop goroutine must exit without firing
	time.Sleep(10 * time.Millisecond)
	if got := player.stopList(); len(got) != 0 {
		t.Errorf("expected no stops after cancellation, got %+v", got)
	}
}
