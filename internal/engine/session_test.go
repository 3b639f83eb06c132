package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taleweaver/client/internal/story"
)

func TestVisibleMessagesOverlaysPending(t *testing.T) {
	sess, _, _ := newTestSession()
	sess.setPending([]story.ChatMessage{{Author: story.AuthorUser, Text: "knock"}})

	visible := sess.VisibleMessages()
	require.Len(t, visible, 2)
	assert.Equal(t, "knock", visible[1].Text)

	assert.Len(t, sess.History.Current().Messages, 1, "pending never reaches history")
}

func TestUndoRedoCancelNarration(t *testing.T) {
	sess, narration, _ := newTestSession()
	sess.History.Commit(story.NewSnapshot(
		[]story.ChatMessage{{Author: story.AuthorModel, Text: "Second."}}, "", nil))

	assert.True(t, sess.Undo())
	assert.Equal(t, 1, narration.cancelCount())

	assert.True(t, sess.Redo())
	assert.Equal(t, 2, narration.cancelCount())

	assert.False(t, sess.Redo(), "redo at the end of the log is a no-op")
	assert.Equal(t, 2, narration.cancelCount(), "no-op moves leave playback alone")
}

func TestSetMutedForwardsToAmbiance(t *testing.T) {
	sess, _, ambiance := newTestSession()

	sess.SetMuted(true)
	assert.True(t, sess.Muted())
	assert.True(t, ambiance.muted)

	sess.SetMuted(false)
	assert.False(t, ambiance.muted)
}

func TestSessionBlobRoundTrip(t *testing.T) {
	sess, _, _ := newTestSession()
	sess.History.Commit(story.NewSnapshot(
		[]story.ChatMessage{{Author: story.AuthorModel, Text: "Second."}},
		"http://img.local/2.png",
		[]string{"On"}))
	sess.Voices.Assign("BARNABY")
	sess.SetFontPrefs(22, "sans-serif")

	blob := sess.ExportBlob()

	restored, _, _ := newTestSession()
	restored.ApplyBlob(blob)

	assert.Equal(t, 2, restored.History.Len())
	assert.Equal(t, 1, restored.History.Cursor())
	assert.Equal(t, "Second.", restored.History.Current().Messages[0].Text)

	size, family := restored.FontPrefs()
	assert.Equal(t, 22, size)
	assert.Equal(t, "sans-serif", family)

	assert.Equal(t, sess.Voices.Snapshot(), restored.Voices.Snapshot())
}

func TestApplyBlobStopsPlayback(t *testing.T) {
	sess, narration, ambiance := newTestSession()
	sess.setPending([]story.ChatMessage{{Author: story.AuthorUser, Text: "stale"}})

	sess.ApplyBlob(SessionBlob{
		History: []story.Snapshot{OpeningSnapshot()},
		Cursor:  0,
	})

	assert.Equal(t, 1, narration.cancelCount())
	assert.Equal(t, 1, ambiance.stops)
	assert.Len(t, sess.VisibleMessages(), 1, "pending overlay dropped on load")
}

func TestSessionManagerLifecycle(t *testing.T) {
	mgr := NewSessionManager(func() (NarrationControl, AmbianceControl) {
		return &stubNarration{}, &stubAmbiance{}
	})

	sess := mgr.Create()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, mgr.Len())

	got, err := mgr.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = mgr.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	mgr.Remove(sess.ID)
	assert.Zero(t, mgr.Len())
	assert.Equal(t, 1, sess.Narration.(*stubNarration).cancelCount())
	assert.Equal(t, 1, sess.Ambiance.(*stubAmbiance).stops)
}
