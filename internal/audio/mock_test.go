package audio

import (
	"io"
	"sync"
	"time"
)

// mockPlayer simulates a playback source. If autoFinish is positive the
// player reports IsPlaying false that long after Play.
type mockPlayer struct {
	mu         sync.Mutex
	content    []byte
	volume     float64
	playing    bool
	closed     bool
	started    bool
	startedAt  time.Time
	autoFinish time.Duration
}

func (p *mockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.playing = true
	p.started = true
	p.startedAt = time.Now()
}

func (p *mockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *mockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing && p.autoFinish > 0 && time.Since(p.startedAt) >= p.autoFinish {
		p.playing = false
	}
	return p.playing
}

func (p *mockPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *mockPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *mockPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.closed = true
	return nil
}

func (p *mockPlayer) wasStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *mockPlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// mockContext hands out mockPlayers and records them in creation order.
type mockContext struct {
	mu         sync.Mutex
	players    []*mockPlayer
	autoFinish time.Duration
	resumeErr  error
	sampleRate int
	channels   int
}

func newMockContext(autoFinish time.Duration) *mockContext {
	return &mockContext{autoFinish: autoFinish, sampleRate: 24000, channels: 1}
}

func (c *mockContext) NewPlayer(r io.Reader) Player {
	// Loop readers never return EOF, so cap what we capture.
	content := make([]byte, 0, 256)
	buf := make([]byte, 64)
	for len(content) < 256 {
		n, err := r.Read(buf)
		content = append(content, buf[:n]...)
		if err != nil {
			break
		}
	}
	p := &mockPlayer{content: content, volume: 1, autoFinish: c.autoFinish}
	c.mu.Lock()
	c.players = append(c.players, p)
	c.mu.Unlock()
	return p
}

func (c *mockContext) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeErr
}

func (c *mockContext) Suspend() error    { return nil }
func (c *mockContext) SampleRate() int   { return c.sampleRate }
func (c *mockContext) ChannelCount() int { return c.channels }

func (c *mockContext) allPlayers() []*mockPlayer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*mockPlayer(nil), c.players...)
}

// startedContents returns the captured PCM of every player that actually
// began playback, in creation order.
func (c *mockContext) startedContents() []string {
	var out []string
	for _, p := range c.allPlayers() {
		if p.wasStarted() {
			out = append(out, string(p.content))
		}
	}
	return out
}

// mockFactory returns the same context every call, optionally sleeping first
// to widen the context-creation suspension window.
func mockFactory(ctx *mockContext, delay time.Duration) ContextFactory {
	return func(sampleRate, channels int) (Context, error) {
		if delay > 0 {
			time.Sleep(delay)
		}
		return ctx, nil
	}
}

// fakeDecoder maps payload strings to deterministic PCM, with optional
// per-payload failures.
type fakeDecoder struct {
	fail map[string]bool
}

func (d fakeDecoder) Decode(payload string) ([]byte, error) {
	if d.fail[payload] {
		return nil, ErrDecode
	}
	return []byte("pcm-" + payload), nil
}

func (d fakeDecoder) DecodeBytes(raw []byte) ([]byte, error) {
	return []byte("pcm-bytes"), nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
