package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Context is the platform audio output abstraction. Production code uses the
// oto-backed implementation; tests substitute a mock.
type Context interface {
	// NewPlayer creates a player reading s16le PCM from r.
	NewPlayer(r io.Reader) Player

	// Resume resumes a suspended context. Creating a player on a suspended
	// context produces no sound, so callers resume before starting playback.
	Resume() error

	// Suspend suspends the context.
	Suspend() error

	SampleRate() int
	ChannelCount() int
}

// Player is a single playback source. At most one narration player is active
// at a time; ambiance holds one looping player per live track.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Volume() float64
	Close() error
}

// ContextFactory lazily creates an audio context at the given format. Both
// players hold a factory and only create the context on first playback.
type ContextFactory func(sampleRate, channels int) (Context, error)

type otoContext struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
}

type otoPlayer struct {
	*oto.Player
}

func (p otoPlayer) SetVolume(v float64) { p.Player.SetVolume(v) }
func (p otoPlayer) Volume() float64     { return p.Player.Volume() }

func (c *otoContext) NewPlayer(r io.Reader) Player { return otoPlayer{c.ctx.NewPlayer(r)} }
func (c *otoContext) Resume() error                { return c.ctx.Resume() }
func (c *otoContext) Suspend() error               { return c.ctx.Suspend() }
func (c *otoContext) SampleRate() int              { return c.sampleRate }
func (c *otoContext) ChannelCount() int            { return c.channels }

var (
	otoOnce sync.Once
	otoCtx  *otoContext
	otoErr  error
)

// OtoContextFactory returns a ContextFactory backed by the oto library. The
// OS allows a single oto context per process, so the context is created once
// and shared; subsequent calls must request the same format.
func OtoContextFactory() ContextFactory {
	return func(sampleRate, channels int) (Context, error) {
		otoOnce.Do(func() {
			op := &oto.NewContextOptions{
				SampleRate:   sampleRate,
				ChannelCount: channels,
				Format:       oto.FormatSignedInt16LE,
			}
			ctx, ready, err := oto.NewContext(op)
			if err != nil {
				otoErr = fmt.Errorf("failed to create oto context: %w", err)
				return
			}
			<-ready
			otoCtx = &otoContext{ctx: ctx, sampleRate: sampleRate, channels: channels}
		})
		if otoErr != nil {
			return nil, otoErr
		}
		if otoCtx.sampleRate != sampleRate || otoCtx.channels != channels {
			return nil, fmt.Errorf("audio context already open at %dHz/%dch, requested %dHz/%dch",
				otoCtx.sampleRate, otoCtx.channels, sampleRate, channels)
		}
		return otoCtx, nil
	}
}
