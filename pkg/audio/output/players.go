// ABOUTME: Oto-based player factory for the clip backend
// ABOUTME: Creates an independent player per play call for polyphony
package output

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayers implements PlayerContext over a shared oto context
type OtoPlayers struct {
	otoCtx *oto.Context
}

// NewOtoPlayers opens an oto context for per-clip players
func NewOtoPlayers(sampleRate, channels int) (*OtoPlayers, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	return &OtoPlayers{otoCtx: ctx}, nil
}

// NewPlayer creates an independent player reading 16-bit LE PCM
func (p *OtoPlayers) NewPlayer(r io.Reader) Player {
	return &otoPlayer{p: p.otoCtx.NewPlayer(r)}
}

// Resume unblocks a suspended context
func (p *OtoPlayers) Resume() error {
	return p.otoCtx.Resume()
}

// Close suspends the context
func (p *OtoPlayers) Close() error {
	return p.otoCtx.Suspend()
}

type otoPlayer struct {
	p *oto.Player
}

func (o *otoPlayer) Play()                { o.p.Play() }
func (o *otoPlayer) Pause()               { o.p.Pause() }
func (o *otoPlayer) SetVolume(v float64)  { o.p.SetVolume(v) }
func (o *otoPlayer) IsPlaying() bool      { return o.p.IsPlaying() }
func (o *otoPlayer) Close() error         { return o.p.Close() }
