package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSegmentsStripsTagsAndMarkup(t *testing.T) {
	segs := DeriveSegments("[NARRATOR] Hello {brave|meaning courageous} friend")

	require.Len(t, segs, 1)
	assert.Equal(t, "NARRATOR", segs[0].Speaker)
	assert.Equal(t, "Hello brave friend", segs[0].Text)
}

func TestDeriveSegmentsUntaggedTextIsNarrated(t *testing.T) {
	segs := DeriveSegments("Once upon a time there was a fox.")

	require.Len(t, segs, 1)
	assert.Equal(t, NarratorSpeaker, segs[0].Speaker)
	assert.Equal(t, "Once upon a time there was a fox.", segs[0].Text)
}

func TestDeriveSegmentsEmptyText(t *testing.T) {
	assert.Nil(t, DeriveSegments(""))
	assert.Nil(t, DeriveSegments("   \n  "))
}

func TestDeriveSegmentsMultipleSpeakers(t *testing.T) {
	text := "[NARRATOR] The cave was dark. [BARNABY] Who goes there? [MOLLY] Just me!"
	segs := DeriveSegments(text)

	require.Len(t, segs, 3)
	assert.Equal(t, Segment{Speaker: "NARRATOR", Text: "The cave was dark."}, segs[0])
	assert.Equal(t, Segment{Speaker: "BARNABY", Text: "Who goes there?"}, segs[1])
	assert.Equal(t, Segment{Speaker: "MOLLY", Text: "Just me!"}, segs[2])
}

func TestDeriveSegmentsLeadingUntaggedText(t *testing.T) {
	segs := DeriveSegments("A storm rolled in. [CAPTAIN] All hands on deck!")

	require.Len(t, segs, 2)
	assert.Equal(t, NarratorSpeaker, segs[0].Speaker)
	assert.Equal(t, "A storm rolled in.", segs[0].Text)
	assert.Equal(t, "CAPTAIN", segs[1].Speaker)
}

func TestDeriveSegmentsDropsEmptySegments(t *testing.T) {
	segs := DeriveSegments("[NARRATOR] [BARNABY] Hello.")

	require.Len(t, segs, 1)
	assert.Equal(t, "BARNABY", segs[0].Speaker)
}

func TestDeriveSegmentsIgnoresLowercaseBrackets(t *testing.T) {
	segs := DeriveSegments("He read the sign: [exit this way] and moved on.")

	require.Len(t, segs, 1)
	assert.Equal(t, NarratorSpeaker, segs[0].Speaker)
}

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"plain text":                        "plain text",
		"{brave|meaning courageous} friend": "brave friend",
		"a {b|c} and {d|e} too":             "a b and d too",
		"unclosed {brace| stays":            "unclosed {brace| stays",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripMarkup(in), "input %q", in)
	}
}
