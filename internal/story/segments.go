package story

import (
	"regexp"
	"strings"
)

// NarratorSpeaker is the implicit speaker for untagged story text.
const NarratorSpeaker = "NARRATOR"

// Segment is one contiguous run of dialogue attributed to a single speaker.
// Text has speaker tags and interactive-word markup already stripped, so it
// is safe to hand straight to speech synthesis.
type Segment struct {
	Speaker string
	Text    string
}

var (
	speakerTagRe = regexp.MustCompile(`\[([A-Z][A-Z0-9 '_-]*)\]`)
	markupRe     = regexp.MustCompile(`\{([^{}|]*)\|[^{}]*\}`)
)

// StripMarkup removes interactive-word markup, keeping only the word:
// "{brave|meaning courageous}" becomes "brave".
func StripMarkup(text string) string {
	return markupRe.ReplaceAllString(text, "$1")
}

// DeriveSegments scans story text for bracketed ALL-CAPS speaker tags. Each
// tag starts a new segment running until the next tag. Text with no tags at
// all becomes a single NARRATOR segment. Segments that are empty after
// stripping are dropped.
func DeriveSegments(text string) []Segment {
	matches := speakerTagRe.FindAllStringSubmatchIndex(text, -1)

	if len(matches) == 0 {
		clean := strings.TrimSpace(StripMarkup(text))
		if clean == "" {
			return nil
		}
		return []Segment{{Speaker: NarratorSpeaker, Text: clean}}
	}

	var segments []Segment
	appendSegment := func(speaker, raw string) {
		clean := strings.TrimSpace(StripMarkup(raw))
		if clean == "" {
			return
		}
		segments = append(segments, Segment{Speaker: speaker, Text: clean})
	}

	// Leading untagged text is narrated.
	if lead := text[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		appendSegment(NarratorSpeaker, lead)
	}

	for i, m := range matches {
		speaker := strings.ToUpper(strings.TrimSpace(text[m[2]:m[3]]))
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		appendSegment(speaker, text[m[1]:end])
	}

	return segments
}
