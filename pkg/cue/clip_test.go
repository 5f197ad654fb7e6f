// ABOUTME: Tests for the clip backend
// ABOUTME: Uses fake players and a fake clock to verify voice lifecycle
package cue

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/soundcue/soundcue-go/pkg/audio/output"
)

type fakePlayer struct {
	mu       sync.Mutex
	playing  bool
	closed   bool
	volume   float64
	playedCh chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{playedCh: make(chan struct{})}
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		p.playing = true
		close(p.playedCh)
	}
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *fakePlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.playing = false
	return nil
}

func (p *fakePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *fakePlayer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakePlayers struct {
	mu      sync.Mutex
	players []*fakePlayer
	resumed bool
	closed  bool
}

func (f *fakePlayers) NewPlayer(r io.Reader) output.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := newFakePlayer()
	f.players = append(f.players, p)
	return p
}

func (f *fakePlayers) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = true
	return nil
}

func (f *fakePlayers) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePlayers) player(i int) *fakePlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.players[i]
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool, msg string) {
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

func TestClipImmediatePlay(t *testing.T) {
	players := &fakePlayers{}
	b := NewClipBackend(players, clockwork.NewFakeClock(), zerolog.Nop())

	v, err := b.ScheduleVoice(makeClip(480, 1000), VoiceOptions{Key: "tick", Gain: 0.8})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	p := players.player(0)
	select {
	case <-p.playedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected player to start")
	}

	if got := p.Volume(); got != 0.8 {
		t.Errorf("expected volume 0.8, got %v", got)
	}
	if !v.Active() {
		t.Error("expected voice active")
	}
}

func TestClipDelayedStart(t *testing.T) {
	players := &fakePlayers{}
	clock := clockwork.NewFakeClock()
	b := NewClipBackend(players, clock, zerolog.Nop())

	_, err := b.ScheduleVoice(makeClip(480, 1000), VoiceOptions{
		Key:     "tick",
		Gain:    1.0,
		StartAt: clock.Now().Add(100 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// The voice goroutine must be parked on the delay timer
	clock.BlockUntil(1)
	p := players.player(0)
	if p.IsPlaying() {
		t.Fatal("expected no playback before the delay elapses")
	}

	clock.Advance(100 * time.Millisecond)
	select {
	case <-p.playedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected player to start after the delay")
	}
}

func TestClipStopBeforeStart(t *testing.T) {
	players := &fakePlayers{}
	clock := clockwork.NewFakeClock()
	b := NewClipBackend(players, clock, zerolog.Nop())

	v, err := b.ScheduleVoice(makeClip(480, 1000), VoiceOptions{
		Key:     "tick",
		Gain:    1.0,
		StartAt: clock.Now().Add(time.Second),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	clock.BlockUntil(1)
	v.Stop(0)

	p := players.player(0)
	waitFor(t, p.Closed, "expected player closed after Stop")
	if p.IsPlaying() {
		t.Error("expected no playback for a cancelled voice")
	}
	if v.Active() {
		t.Error("expected voice inactive")
	}
}

func TestClipFadeInRamps(t *testing.T) {
	players := &fakePlayers{}
	clock := clockwork.NewFakeClock()
	b := NewClipBackend(players, clock, zerolog.Nop())

	_, err := b.ScheduleVoice(makeClip(48000, 1000), VoiceOptions{
		Key:    "riser",
		Gain:   1.0,
		Loop:   true,
		FadeIn: 2 * clipFadeStep,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	p := players.player(0)
	select {
	case <-p.playedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected player to start")
	}
	if got := p.Volume(); got != 0 {
		t.Fatalf("expected fade to start silent, got %v", got)
	}

	clock.BlockUntil(1)
	clock.Advance(clipFadeStep)
	waitFor(t, func() bool { return p.Volume() == 0.5 }, "expected half volume after first step")

	clock.BlockUntil(1)
	clock.Advance(clipFadeStep)
	waitFor(t, func() bool { return p.Volume() == 1.0 }, "expected full volume after fade")
}

func TestClipStopWithFade(t *testing.T) {
	players := &fakePlayers{}
	clock := clockwork.NewFakeClock()
	b := NewClipBackend(players, clock, zerolog.Nop())

	v, err := b.ScheduleVoice(makeClip(48000, 1000), VoiceOptions{
		Key:  "drone",
		Gain: 1.0,
		Loop: true,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	p := players.player(0)
	select {
	case <-p.playedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected player to start")
	}

	done := make(chan struct{})
	go func() {
		v.Stop(clipFadeStep)
		close(done)
	}()

	clock.BlockUntil(1)
	clock.Advance(clipFadeStep)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Stop to finish after the fade")
	}
	if !p.Closed() {
		t.Error("expected player closed after fade-out")
	}
	if v.Active() {
		t.Error("expected voice inactive")
	}
}

func TestClipSetMasterGainReappliesLiveVolumes(t *testing.T) {
	players := &fakePlayers{}
	b := NewClipBackend(players, clockwork.NewFakeClock(), zerolog.Nop())

	_, err := b.ScheduleVoice(makeClip(48000, 1000), VoiceOptions{Key: "drone", Gain: 0.8, Loop: true})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	p := players.player(0)
	select {
	case <-p.playedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected player to start")
	}

	b.SetMasterGain(0.5)
	if got := p.Volume(); got != 0.4 {
		t.Errorf("expected 0.8*0.5=0.4, got %v", got)
	}
}

func TestClipStopAllAndResume(t *testing.T) {
	players := &fakePlayers{}
	b := NewClipBackend(players, clockwork.NewFakeClock(), zerolog.Nop())

	v, err := b.ScheduleVoice(makeClip(48000, 1000), VoiceOptions{Key: "drone", Gain: 1.0, Loop: true})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	p := players.player(0)
	select {
	case <-p.playedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected player to start")
	}

	b.StopAll()
	if v.Active() {
		t.Error("expected voice inactive after StopAll")
	}
	waitFor(t, p.Closed, "expected player closed after StopAll")

	if err := b.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !players.resumed {
		t.Error("expected player context resumed")
	}
}

func TestLoopReaderWraps(t *testing.T) {
	r := &loopReader{data: []byte{1, 2, 3}}

	buf := make([]byte, 7)
	n, err := r.Read(buf)
	if err != nil || n != 7 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}

	want := []byte{1, 2, 3, 1, 2, 3, 1}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, buf)
		}
	}
}
