package audio

import (
	"bytes"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/atomic"
)

// PCMDecoder decodes one transport-encoded payload into playable PCM.
type PCMDecoder interface {
	Decode(payload string) ([]byte, error)
}

// NarrationPlayer owns a strictly sequential playback queue of synthesized
// utterances. Replacing the queue cancels whatever was playing; cancellation
// is cooperative through a monotonic generation counter because playback
// sources have no native abort. Any in-flight work captures the generation at
// enqueue time and re-checks it after every suspension point, aborting
// silently on mismatch.
type NarrationPlayer struct {
	factory    ContextFactory
	decoder    PCMDecoder
	sampleRate int
	channels   int

	generation atomic.Int64

	mu      sync.Mutex
	ctx     Context
	active  Player
	queue   []string
	playing bool

	pollInterval time.Duration
	logger       *log.Logger
}

// NewNarrationPlayer creates a narration player. The platform context is
// created lazily on first playback via the factory.
func NewNarrationPlayer(factory ContextFactory, decoder PCMDecoder, sampleRate, channels int) *NarrationPlayer {
	return &NarrationPlayer{
		factory:      factory,
		decoder:      decoder,
		sampleRate:   sampleRate,
		channels:     channels,
		pollInterval: 25 * time.Millisecond,
		logger:       log.With("component", "narration"),
	}
}

// EnqueueReplace cancels any current playback and pending queue, sets the
// queue to exactly items and begins draining it. Replacement, never append,
// is the contract for a fresh turn.
func (n *NarrationPlayer) EnqueueReplace(items []string) {
	gen := n.generation.Inc()

	n.mu.Lock()
	n.stopActiveLocked()
	n.queue = append([]string(nil), items...)
	n.playing = len(n.queue) > 0
	n.mu.Unlock()

	if len(items) > 0 {
		go n.drain(gen)
	}
}

// Cancel stops the active source, clears the queue and invalidates every
// in-flight operation. Idempotent.
func (n *NarrationPlayer) Cancel() {
	n.generation.Inc()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopActiveLocked()
	n.queue = nil
	n.playing = false
}

// IsPlaying reports whether the queue is currently being drained.
func (n *NarrationPlayer) IsPlaying() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// QueueLen returns the number of payloads still waiting.
func (n *NarrationPlayer) QueueLen() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

func (n *NarrationPlayer) stopActiveLocked() {
	if n.active != nil {
		n.active.Pause()
		_ = n.active.Close()
		n.active = nil
	}
}

// drain plays queued items one at a time. A stale generation returns without
// touching player state: the enqueue that superseded this one owns it now.
// A failure decoding or starting a single item logs and advances to the next
// item; one bad payload never aborts the whole sequence.
func (n *NarrationPlayer) drain(gen int64) {
	for {
		n.mu.Lock()
		if n.generation.Load() != gen {
			n.mu.Unlock()
			return
		}
		if len(n.queue) == 0 {
			n.playing = false
			n.mu.Unlock()
			return
		}
		payload := n.queue[0]
		n.queue = n.queue[1:]
		ctx := n.ctx
		n.mu.Unlock()

		if ctx == nil {
			created, err := n.factory(n.sampleRate, n.channels)
			if err != nil {
				n.logger.Error("failed to create audio context, skipping item", "err", err)
				continue
			}
			n.mu.Lock()
			if n.generation.Load() != gen {
				n.mu.Unlock()
				return
			}
			n.ctx = created
			ctx = created
			n.mu.Unlock()
		}

		if err := ctx.Resume(); err != nil {
			n.logger.Warn("context resume failed, skipping item", "err", err)
			continue
		}
		if n.generation.Load() != gen {
			return
		}

		pcm, err := n.decoder.Decode(payload)
		if err != nil {
			n.logger.Warn("narration item failed to decode, skipping", "err", err)
			continue
		}
		if n.generation.Load() != gen {
			return
		}

		player := ctx.NewPlayer(bytes.NewReader(pcm))
		n.mu.Lock()
		if n.generation.Load() != gen {
			n.mu.Unlock()
			_ = player.Close()
			return
		}
		n.active = player
		n.mu.Unlock()

		player.Play()
		for player.IsPlaying() {
			if n.generation.Load() != gen {
				return
			}
			time.Sleep(n.pollInterval)
		}
		if n.generation.Load() != gen {
			return
		}

		n.mu.Lock()
		if n.generation.Load() != gen {
			n.mu.Unlock()
			return
		}
		n.active = nil
		n.mu.Unlock()
		_ = player.Close()
	}
}
