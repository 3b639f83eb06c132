package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"taleweaver/client/internal/interfaces"
	"taleweaver/client/internal/story"
)

type stubGenerator struct {
	mu      sync.Mutex
	payload *interfaces.TurnPayload
	err     error

	gotTranscript []story.ChatMessage
	gotInput      string
	gotMemories   []string
}

func (g *stubGenerator) GenerateTurn(_ context.Context, transcript []story.ChatMessage, input string, memories []string) (*interfaces.TurnPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gotTranscript = transcript
	g.gotInput = input
	g.gotMemories = memories
	if g.err != nil {
		return nil, g.err
	}
	return g.payload, nil
}

type stubSpeech struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
	delay  time.Duration
}

func (s *stubSpeech) Synthesize(_ context.Context, text, voiceID string) (string, error) {
	s.mu.Lock()
	s.calls++
	fail := s.failOn[text]
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if fail {
		return "", fmt.Errorf("synthesis refused")
	}
	return fmt.Sprintf("clip|%s|%s", voiceID, text), nil
}

type stubImages struct{ url string }

func (i *stubImages) Generate(context.Context, string) string { return i.url }

type stubMoods struct{ mood string }

func (m *stubMoods) Classify(context.Context, string) string { return m.mood }

type stubMemory struct {
	mu      sync.Mutex
	stored  []string
	related []string
}

func (m *stubMemory) StoreTurn(_ context.Context, _, userInput, storyText string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, userInput+"/"+storyText)
}

func (m *stubMemory) RelatedMemories(context.Context, string, string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.related
}

func (m *stubMemory) storedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

type stubNarration struct {
	mu       sync.Mutex
	enqueued [][]string
	cancels  int
}

func (n *stubNarration) EnqueueReplace(items []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enqueued = append(n.enqueued, items)
}

func (n *stubNarration) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancels++
}

func (n *stubNarration) lastEnqueued() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.enqueued) == 0 {
		return nil
	}
	return n.enqueued[len(n.enqueued)-1]
}

func (n *stubNarration) cancelCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cancels
}

type stubAmbiance struct {
	mu       sync.Mutex
	switches []string
	muted    bool
	stops    int
}

func (a *stubAmbiance) SwitchTo(_ context.Context, trackKey, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.switches = append(a.switches, trackKey)
	return nil
}

func (a *stubAmbiance) SetMuted(muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = muted
}

func (a *stubAmbiance) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
}

func (a *stubAmbiance) lastSwitch() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.switches) == 0 {
		return ""
	}
	return a.switches[len(a.switches)-1]
}

func (a *stubAmbiance) switchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.switches)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never met: %s", msg)
}

func newTestSession() (*Session, *stubNarration, *stubAmbiance) {
	narration := &stubNarration{}
	ambiance := &stubAmbiance{}
	return NewSession("test-session", narration, ambiance), narration, ambiance
}
