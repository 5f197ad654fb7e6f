// ABOUTME: Graph playback backend with a software mixing loop
// ABOUTME: Frame-clock scheduling, per-voice gain and linear fade ramps
package cue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/soundcue/soundcue-go/pkg/audio"
	"github.com/soundcue/soundcue-go/pkg/audio/output"
)

// mixerBlockMs is the render block size; the blocking device write at
// this cadence is what paces the loop.
const mixerBlockMs = 10

// Mixer is the graph backend: every voice feeds a shared master gain and
// one continuous output stream. Scheduling is absolute against the
// mixer's own frame clock, so main-goroutine jitter cannot move a
// committed start time.
type Mixer struct {
	out         output.Output
	clock       clockwork.Clock
	sampleRate  int
	channels    int
	blockFrames int

	mu     sync.Mutex
	voices []*mixerVoice
	master float64
	epoch  time.Time
	frame  int64 // frames rendered since epoch

	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// NewMixer opens the output device and prepares the render loop
func NewMixer(out output.Output, clock clockwork.Clock, sampleRate, channels int, logger zerolog.Logger) (*Mixer, error) {
	if err := out.Open(sampleRate, channels); err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mixer{
		out:         out,
		clock:       clock,
		sampleRate:  sampleRate,
		channels:    channels,
		blockFrames: sampleRate * mixerBlockMs / 1000,
		master:      1.0,
		ctx:         ctx,
		cancel:      cancel,
		log:         logger,
	}, nil
}

// Name identifies the backend
func (m *Mixer) Name() string { return "mixer" }

// SchedulesAbsolute is true: voices start on exact frame-clock targets
func (m *Mixer) SchedulesAbsolute() bool { return true }

// Start anchors the frame clock and begins rendering
func (m *Mixer) Start() error {
	m.mu.Lock()
	m.epoch = m.clock.Now()
	m.mu.Unlock()

	go m.run()
	return nil
}

func (m *Mixer) run() {
	buf := make([]int32, m.blockFrames*m.channels)
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.renderBlock(buf)
		if err := m.out.Write(buf); err != nil {
			m.log.Error().Err(err).Msg("output write failed, stopping mixer")
			return
		}
	}
}

// renderBlock mixes one block of all active voices into buf
func (m *Mixer) renderBlock(buf []int32) {
	scratch := make([]int64, len(buf))

	m.mu.Lock()
	blockStart := m.frame
	master := m.master

	active := m.voices[:0]
	for _, v := range m.voices {
		v.mix(scratch, blockStart, m.blockFrames, m.channels, master)
		if !v.done {
			active = append(active, v)
		}
	}
	m.voices = active
	m.frame += int64(m.blockFrames)
	m.mu.Unlock()

	for i, s := range scratch {
		if s > audio.Max24Bit {
			s = audio.Max24Bit
		} else if s < audio.Min24Bit {
			s = audio.Min24Bit
		}
		buf[i] = int32(s)
	}
}

// frameForTime maps an absolute wall time to a mixer frame index.
// Callers hold the lock.
func (m *Mixer) frameForTime(t time.Time) int64 {
	if t.IsZero() {
		return m.frame
	}
	f := int64(t.Sub(m.epoch)) * int64(m.sampleRate) / int64(time.Second)
	if f < m.frame {
		// Target already passed; start at the next block
		return m.frame
	}
	return f
}

// ScheduleVoice commits a voice to start at the options' absolute time
func (m *Mixer) ScheduleVoice(clip *audio.Clip, opts VoiceOptions) (Voice, error) {
	if clip.Format.SampleRate != m.sampleRate || clip.Format.Channels != m.channels {
		return nil, fmt.Errorf("clip format %dHz %dch does not match mixer %dHz %dch",
			clip.Format.SampleRate, clip.Format.Channels, m.sampleRate, m.channels)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v := &mixerVoice{
		mixer:        m,
		id:           uuid.New().String(),
		key:          opts.Key,
		clip:         clip,
		startFrame:   m.frameForTime(opts.StartAt),
		gain:         opts.Gain,
		loop:         opts.Loop,
		fadeInFrames: int64(opts.FadeIn) * int64(m.sampleRate) / int64(time.Second),
		fadeOutStart: -1,
	}
	m.voices = append(m.voices, v)

	return v, nil
}

// SetMasterGain sets the shared output gain
func (m *Mixer) SetMasterGain(gain float64) {
	m.mu.Lock()
	m.master = clamp01(gain)
	m.mu.Unlock()
}

// StopAll immediately releases every voice
func (m *Mixer) StopAll() {
	m.mu.Lock()
	for _, v := range m.voices {
		v.done = true
	}
	m.voices = nil
	m.mu.Unlock()
}

// Resume unblocks a suspended output device
func (m *Mixer) Resume() error {
	return m.out.Resume()
}

// Close stops rendering and releases the device
func (m *Mixer) Close() error {
	m.cancel()
	return m.out.Close()
}

// mixerVoice is one source -> per-voice gain chain feeding the master
type mixerVoice struct {
	mixer *Mixer
	id    string
	key   string
	clip  *audio.Clip

	startFrame    int64
	gain          float64
	loop          bool
	fadeInFrames  int64
	fadeOutStart  int64 // mixer frame when fade-out began, -1 if none
	fadeOutFrames int64
	done          bool
}

// mix accumulates this voice's contribution for one block.
// Caller holds the mixer lock.
func (v *mixerVoice) mix(scratch []int64, blockStart int64, blockFrames, channels int, master float64) {
	if v.done {
		return
	}

	clipFrames := int64(v.clip.Frames())
	if clipFrames == 0 {
		v.done = true
		return
	}

	for i := 0; i < blockFrames; i++ {
		f := blockStart + int64(i)
		if f < v.startFrame {
			continue
		}

		rel := f - v.startFrame
		if !v.loop && rel >= clipFrames {
			v.done = true
			return
		}

		g := v.gain * master
		if v.fadeInFrames > 0 && rel < v.fadeInFrames {
			g *= float64(rel) / float64(v.fadeInFrames)
		}
		if v.fadeOutStart >= 0 {
			fo := f - v.fadeOutStart
			if fo >= v.fadeOutFrames {
				v.done = true
				return
			}
			if fo > 0 {
				g *= 1.0 - float64(fo)/float64(v.fadeOutFrames)
			}
		}

		pos := rel % clipFrames
		for ch := 0; ch < channels; ch++ {
			sample := v.clip.Samples[pos*int64(channels)+int64(ch)]
			scratch[i*channels+ch] += int64(float64(sample) * g)
		}
	}
}

func (v *mixerVoice) ID() string  { return v.id }
func (v *mixerVoice) Key() string { return v.key }

// Stop releases the voice, with an optional linear fade-out ramp
func (v *mixerVoice) Stop(fadeOut time.Duration) {
	m := v.mixer
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.done {
		return
	}
	if fadeOut <= 0 {
		v.done = true
		return
	}
	if v.fadeOutStart >= 0 {
		// Already fading
		return
	}
	v.fadeOutStart = m.frame
	v.fadeOutFrames = int64(fadeOut) * int64(m.sampleRate) / int64(time.Second)
	if v.fadeOutFrames == 0 {
		v.done = true
	}
}

func (v *mixerVoice) Active() bool {
	v.mixer.mu.Lock()
	defer v.mixer.mu.Unlock()
	return !v.done
}
