package engine

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"taleweaver/client/internal/story"
)

// NarrationControl is the sequential speech queue a session drives.
type NarrationControl interface {
	EnqueueReplace(items []string)
	Cancel()
}

// AmbianceControl is the looping background-audio player a session drives.
type AmbianceControl interface {
	SwitchTo(ctx context.Context, trackKey, url string) error
	SetMuted(muted bool)
	Stop()
}

const openingStory = "[NARRATOR] The lantern above the crossroads gutters as you arrive. " +
	"Three roads stretch away into the evening, and somewhere beyond them a story is waiting for you. " +
	"What do you do?"

// OpeningSnapshot is the seed state every new session starts from.
func OpeningSnapshot() story.Snapshot {
	return story.NewSnapshot(
		[]story.ChatMessage{{Author: story.AuthorModel, Text: openingStory}},
		"",
		[]string{"Take the left road", "Take the right road", "Wait by the lantern"},
	)
}

// Session holds one player's complete story state: the committed history, the
// speaker voice map, the optimistic pending messages shown while a turn
// resolves, the session's two audio players and display preferences.
//
// Pending messages are a view-layer overlay. They are never committed to
// history and never persisted; a failed turn leaves history untouched and the
// overlay carrying the apology.
type Session struct {
	ID string

	History *story.History
	Voices  *story.VoiceMap

	Narration NarrationControl
	Ambiance  AmbianceControl

	inFlight atomic.Bool

	mu         sync.Mutex
	pending    []story.ChatMessage
	fontSize   int
	fontFamily string
	muted      bool
}

// NewSession creates a session seeded with the opening snapshot.
func NewSession(id string, narration NarrationControl, ambiance AmbianceControl) *Session {
	return &Session{
		ID:         id,
		History:    story.NewHistory(OpeningSnapshot()),
		Voices:     story.NewVoiceMap(story.DefaultVoicePool),
		Narration:  narration,
		Ambiance:   ambiance,
		fontSize:   defaultFontSize,
		fontFamily: defaultFontFamily,
	}
}

const (
	defaultFontSize   = 18
	defaultFontFamily = "serif"
)

// VisibleMessages returns the committed transcript with the pending overlay
// appended. This is what the view renders.
func (s *Session) VisibleMessages() []story.ChatMessage {
	committed := s.History.Current().Messages

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]story.ChatMessage, 0, len(committed)+len(s.pending))
	out = append(out, committed...)
	out = append(out, s.pending...)
	return out
}

func (s *Session) setPending(msgs []story.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = msgs
}

func (s *Session) clearPending() {
	s.setPending(nil)
}

// Undo steps the story back one snapshot. Narration for the abandoned state
// is cancelled; the no-op case at the start of the log leaves playback alone.
func (s *Session) Undo() bool {
	if !s.History.Undo() {
		return false
	}
	s.clearPending()
	s.Narration.Cancel()
	return true
}

// Redo steps the story forward one snapshot.
func (s *Session) Redo() bool {
	if !s.History.Redo() {
		return false
	}
	s.clearPending()
	s.Narration.Cancel()
	return true
}

// SetMuted toggles ambiance audibility without changing which track plays.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
	s.Ambiance.SetMuted(muted)
}

// Muted reports the session's ambiance mute flag.
func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetFontPrefs updates display preferences. Zero values keep the current
// setting.
func (s *Session) SetFontPrefs(size int, family string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size > 0 {
		s.fontSize = size
	}
	if family != "" {
		s.fontFamily = family
	}
}

// FontPrefs returns the current display preferences.
func (s *Session) FontPrefs() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fontSize, s.fontFamily
}

// SessionBlob is the serialized form of a session used by save/load. Pending
// messages and playback state are deliberately absent.
type SessionBlob struct {
	History    []story.Snapshot  `json:"history"`
	Cursor     int               `json:"cursor_index"`
	FontSize   int               `json:"font_size"`
	FontFamily string            `json:"font_family"`
	VoiceMap   map[string]string `json:"character_voice_map"`
}

// ExportBlob captures the persistable session state.
func (s *Session) ExportBlob() SessionBlob {
	size, family := s.FontPrefs()
	return SessionBlob{
		History:    s.History.Entries(),
		Cursor:     s.History.Cursor(),
		FontSize:   size,
		FontFamily: family,
		VoiceMap:   s.Voices.Snapshot(),
	}
}

// ApplyBlob replaces the session state with a saved one. Playback stops
// first so no narration or ambiance from the abandoned state leaks into the
// restored one.
func (s *Session) ApplyBlob(b SessionBlob) {
	s.Narration.Cancel()
	s.Ambiance.Stop()
	s.clearPending()

	s.History.Restore(b.History, b.Cursor)
	s.Voices.Restore(b.VoiceMap)
	s.SetFontPrefs(b.FontSize, b.FontFamily)
}
