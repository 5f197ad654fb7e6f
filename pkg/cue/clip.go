// ABOUTME: Element playback backend cloning a player per invocation
// ABOUTME: Relative-delay timing only; critical sync is best effort here
package cue

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/soundcue/soundcue-go/pkg/audio"
	"github.com/soundcue/soundcue-go/pkg/audio/output"
)

// clipFadeStep is the volume ramp granularity for fades. The element
// backend has no sample-level gain control, so fades are stepped.
const clipFadeStep = 25 * time.Millisecond

// ClipBackend is the fallback backend used when the mixer's continuous
// output stream is unavailable. Each play call clones an independent
// player, which gives polyphony but only coarse relative timing.
type ClipBackend struct {
	players output.PlayerContext
	clock   clockwork.Clock

	mu     sync.Mutex
	master float64
	voices []*clipVoice
	log    zerolog.Logger
}

// NewClipBackend creates the element backend over a player factory
func NewClipBackend(players output.PlayerContext, clock clockwork.Clock, logger zerolog.Logger) *ClipBackend {
	return &ClipBackend{
		players: players,
		clock:   clock,
		master:  1.0,
		log:     logger,
	}
}

// Name identifies the backend
func (b *ClipBackend) Name() string { return "clip" }

// SchedulesAbsolute is false: timing is goroutine wakeups, not a frame clock
func (b *ClipBackend) SchedulesAbsolute() bool { return false }

// Start is a no-op; players render on demand
func (b *ClipBackend) Start() error { return nil }

// ScheduleVoice clones a player for the clip. StartAt degrades to a
// relative delay measured from now.
func (b *ClipBackend) ScheduleVoice(clip *audio.Clip, opts VoiceOptions) (Voice, error) {
	var delay time.Duration
	if !opts.StartAt.IsZero() {
		if d := opts.StartAt.Sub(b.clock.Now()); d > 0 {
			delay = d
		}
	}

	var r io.Reader = bytes.NewReader(pcm16Bytes(clip))
	if opts.Loop {
		r = &loopReader{data: pcm16Bytes(clip)}
	}

	b.mu.Lock()
	master := b.master
	v := &clipVoice{
		backend: b,
		id:      uuid.New().String(),
		key:     opts.Key,
		player:  b.players.NewPlayer(r),
		gain:    opts.Gain,
		loop:    opts.Loop,
		active:  true,
		stopped: make(chan struct{}),
	}
	b.voices = append(b.voices, v)
	b.mu.Unlock()

	go v.start(delay, opts.FadeIn, master, clip.Duration())

	return v, nil
}

// SetMasterGain reapplies volume to every live player
func (b *ClipBackend) SetMasterGain(gain float64) {
	b.mu.Lock()
	b.master = clamp01(gain)
	master := b.master
	voices := append([]*clipVoice(nil), b.voices...)
	b.mu.Unlock()

	for _, v := range voices {
		v.applyMaster(master)
	}
}

// StopAll immediately releases every voice
func (b *ClipBackend) StopAll() {
	b.mu.Lock()
	voices := b.voices
	b.voices = nil
	b.mu.Unlock()

	for _, v := range voices {
		v.Stop(0)
	}
}

// Resume unblocks a suspended player context
func (b *ClipBackend) Resume() error {
	return b.players.Resume()
}

// Close stops everything and releases the player context
func (b *ClipBackend) Close() error {
	b.StopAll()
	return b.players.Close()
}

func (b *ClipBackend) remove(v *clipVoice) {
	b.mu.Lock()
	for i, other := range b.voices {
		if other == v {
			b.voices = append(b.voices[:i], b.voices[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
}

// clipVoice wraps one cloned player
type clipVoice struct {
	backend *ClipBackend
	id      string
	key     string
	player  output.Player
	gain    float64
	loop    bool

	mu      sync.Mutex
	active  bool
	stopped chan struct{}
}

func (v *clipVoice) start(delay, fadeIn time.Duration, master float64, duration time.Duration) {
	if delay > 0 {
		select {
		case <-v.backend.clock.After(delay):
		case <-v.stopped:
			return
		}
	}

	v.mu.Lock()
	if !v.active {
		v.mu.Unlock()
		return
	}
	if fadeIn > 0 {
		v.player.SetVolume(0)
	} else {
		v.player.SetVolume(v.gain * master)
	}
	v.player.Play()
	v.mu.Unlock()

	if fadeIn > 0 {
		v.ramp(0, v.gain*master, fadeIn)
	}

	if !v.loop {
		select {
		case <-v.backend.clock.After(duration + clipFadeStep):
		case <-v.stopped:
			return
		}
		v.release()
	}
}

// ramp steps the player volume linearly between two gains
func (v *clipVoice) ramp(from, to float64, over time.Duration) {
	steps := int(over / clipFadeStep)
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		select {
		case <-v.backend.clock.After(over / time.Duration(steps)):
		case <-v.stopped:
			return
		}

		v.mu.Lock()
		if !v.active {
			v.mu.Unlock()
			return
		}
		frac := float64(i) / float64(steps)
		v.player.SetVolume(from + (to-from)*frac)
		v.mu.Unlock()
	}
}

func (v *clipVoice) applyMaster(master float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active {
		v.player.SetVolume(v.gain * master)
	}
}

func (v *clipVoice) release() {
	v.mu.Lock()
	if !v.active {
		v.mu.Unlock()
		return
	}
	v.active = false
	close(v.stopped)
	v.player.Close()
	v.mu.Unlock()

	v.backend.remove(v)
}

func (v *clipVoice) ID() string  { return v.id }
func (v *clipVoice) Key() string { return v.key }

// Stop releases the voice, ramping down first when fadeOut is positive
func (v *clipVoice) Stop(fadeOut time.Duration) {
	v.mu.Lock()
	if !v.active {
		v.mu.Unlock()
		return
	}
	gain := v.gain
	v.mu.Unlock()

	v.backend.mu.Lock()
	master := v.backend.master
	v.backend.mu.Unlock()

	if fadeOut > 0 {
		v.ramp(gain*master, 0, fadeOut)
	}
	v.release()
}

func (v *clipVoice) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// pcm16Bytes converts a clip to the 16-bit little-endian stream players read
func pcm16Bytes(clip *audio.Clip) []byte {
	buf := make([]byte, len(clip.Samples)*2)
	for i, s := range clip.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return buf
}

// loopReader replays its data forever
type loopReader struct {
	data []byte
	pos  int
}

func (r *loopReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c := copy(p[n:], r.data[r.pos:])
		n += c
		r.pos = (r.pos + c) % len(r.data)
	}
	return n, nil
}
