package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// BytesDecoder decodes raw container bytes into playable PCM.
type BytesDecoder interface {
	DecodeBytes(raw []byte) ([]byte, error)
}

// AmbianceOptions tunes the ambiance player. Zero values take the listed
// defaults.
type AmbianceOptions struct {
	Volume      float64       // target gain, default 0.35
	Crossfade   time.Duration // track switch fade window, default 1.5s
	MuteRamp    time.Duration // mute/unmute ramp, default 500ms
	MinByteSize int           // integrity threshold for fetched payloads, default 4096
	HTTPClient  *http.Client
}

// AmbiancePlayer owns the single looping background track. Track switches
// are always crossfades: the outgoing source ramps to silence while the
// incoming one starts at the end of the fade window and ramps up. Every
// failure is absorbed here — ambiance must never block story progression.
type AmbiancePlayer struct {
	factory    ContextFactory
	decoder    BytesDecoder
	sampleRate int
	channels   int
	opts       AmbianceOptions

	// switchMu serializes SwitchTo calls so the last request's target wins.
	switchMu sync.Mutex

	mu         sync.Mutex
	ctx        Context
	current    Player
	currentKey string
	muted      bool

	logger *log.Logger
}

// NewAmbiancePlayer creates an ambiance player. The platform context is
// created lazily on the first switch.
func NewAmbiancePlayer(factory ContextFactory, decoder BytesDecoder, sampleRate, channels int, opts AmbianceOptions) *AmbiancePlayer {
	if opts.Volume == 0 {
		opts.Volume = 0.35
	}
	if opts.Crossfade == 0 {
		opts.Crossfade = 1500 * time.Millisecond
	}
	if opts.MuteRamp == 0 {
		opts.MuteRamp = 500 * time.Millisecond
	}
	if opts.MinByteSize == 0 {
		opts.MinByteSize = 4096
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &AmbiancePlayer{
		factory:    factory,
		decoder:    decoder,
		sampleRate: sampleRate,
		channels:   channels,
		opts:       opts,
		logger:     log.With("component", "ambiance"),
	}
}

// CurrentTrack returns the key of the logical current track, or "" if none.
func (a *AmbiancePlayer) CurrentTrack() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentKey
}

// SwitchTo crossfades to the track at url, identified by trackKey. A switch
// to the already-current key is a no-op: no second fetch, no second fade.
// The returned error is informational only; callers log it and move on, and
// a failed switch clears the current-track marker so a retry is possible.
func (a *AmbiancePlayer) SwitchTo(ctx context.Context, trackKey, url string) error {
	a.mu.Lock()
	if trackKey == a.currentKey {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.switchMu.Lock()
	defer a.switchMu.Unlock()

	a.mu.Lock()
	// Re-check after waiting on the switch lock: a queued-up duplicate of
	// whatever just won should not restart the fade.
	if trackKey == a.currentKey {
		a.mu.Unlock()
		return nil
	}

	if a.ctx == nil {
		a.mu.Unlock()
		created, err := a.factory(a.sampleRate, a.channels)
		if err != nil {
			a.logger.Error("failed to create audio context", "err", err)
			return fmt.Errorf("%w: %v", ErrPlaybackStart, err)
		}
		a.mu.Lock()
		if a.ctx == nil {
			a.ctx = created
		}
	}
	actx := a.ctx

	// Committed to the switch: take over the marker and start fading out
	// whatever is live. Old and new sources coexist for the fade window.
	outgoing := a.current
	a.current = nil
	a.currentKey = trackKey
	a.mu.Unlock()

	if err := actx.Resume(); err != nil {
		a.clearTrack(trackKey)
		a.logger.Warn("context resume failed, abandoning switch", "err", err)
		return fmt.Errorf("%w: resume: %v", ErrPlaybackStart, err)
	}

	if outgoing != nil {
		a.rampVolume(outgoing, outgoing.Volume(), 0, a.opts.Crossfade)
		time.AfterFunc(a.opts.Crossfade, func() {
			outgoing.Pause()
			_ = outgoing.Close()
		})
	}

	pcm, err := a.fetchAndDecode(ctx, url)
	if err != nil {
		a.clearTrack(trackKey)
		a.logger.Warn("ambiance switch abandoned", "track", trackKey, "err", err)
		return err
	}

	incoming := actx.NewPlayer(newLoopReader(pcm))
	incoming.SetVolume(0)

	// Become audible exactly as the outgoing track finishes fading. The mute
	// flag is read here, not captured at switch time, so a mute issued while
	// the fetch was in flight still holds the incoming track at silence.
	time.AfterFunc(a.opts.Crossfade, func() {
		a.mu.Lock()
		stale := a.currentKey != trackKey
		muted := a.muted
		a.mu.Unlock()
		if stale {
			_ = incoming.Close()
			return
		}
		incoming.Play()
		if !muted {
			a.rampVolume(incoming, 0, a.opts.Volume, a.opts.Crossfade)
		}
	})

	a.mu.Lock()
	if a.currentKey != trackKey {
		// Superseded while fetching; the later switch will fade us out if
		// we ever became audible, but we never did.
		a.mu.Unlock()
		_ = incoming.Close()
		return nil
	}
	a.current = incoming
	a.mu.Unlock()

	a.logger.Info("ambiance track switched", "track", trackKey)
	return nil
}

// SetMuted ramps the live track to silence or back to the preset volume. It
// does not affect the crossfade schedule or the current-track identity.
func (a *AmbiancePlayer) SetMuted(muted bool) {
	a.mu.Lock()
	a.muted = muted
	current := a.current
	a.mu.Unlock()

	if current == nil {
		return
	}
	target := a.opts.Volume
	if muted {
		target = 0
	}
	a.rampVolume(current, current.Volume(), target, a.opts.MuteRamp)
}

// Stop silences and releases the live track immediately. Used on session
// load, which must reset transient playback state before applying a blob.
func (a *AmbiancePlayer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		a.current.Pause()
		_ = a.current.Close()
		a.current = nil
	}
	a.currentKey = ""
}

func (a *AmbiancePlayer) clearTrack(trackKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentKey == trackKey {
		a.currentKey = ""
	}
}

// fetchAndDecode retrieves the remote resource, validates it and decodes it
// to PCM. The content-type check is advisory: logged, never fatal. The
// byte-size check is not: tiny payloads are rejected outright.
func (a *AmbiancePlayer) fetchAndDecode(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAmbianceFetch, err)
	}
	resp, err := a.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAmbianceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAmbianceFetch, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "audio/") {
		a.logger.Warn("ambiance resource has non-audio content type", "content_type", ct, "url", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAmbianceFetch, err)
	}
	if len(body) < a.opts.MinByteSize {
		return nil, fmt.Errorf("%w: %d bytes below threshold %d", ErrAmbianceIntegrity, len(body), a.opts.MinByteSize)
	}

	pcm, err := a.decoder.DecodeBytes(body)
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

// rampVolume steps a player's gain linearly between two levels over the
// given window. Runs in the background; the final step always lands exactly
// on the target.
func (a *AmbiancePlayer) rampVolume(p Player, from, to float64, window time.Duration) {
	const steps = 30
	go func() {
		interval := window / steps
		for i := 1; i <= steps; i++ {
			p.SetVolume(from + (to-from)*float64(i)/steps)
			if i < steps {
				time.Sleep(interval)
			}
		}
	}()
}

// loopReader replays a PCM buffer forever, turning a one-shot player into a
// looping source.
type loopReader struct {
	data []byte
	pos  int
}

func newLoopReader(data []byte) *loopReader {
	return &loopReader{data: data}
}

func (r *loopReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c := copy(p[n:], r.data[r.pos:])
		n += c
		r.pos += c
		if r.pos == len(r.data) {
			r.pos = 0
		}
	}
	return n, nil
}
