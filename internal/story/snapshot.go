package story

// Author identifies who produced a chat message.
type Author string

const (
	AuthorUser  Author = "user"
	AuthorModel Author = "model"
)

// ChatMessage is a single entry in the story transcript. Model messages carry
// embedded speaker tags and interactive-word markup in their raw text.
type ChatMessage struct {
	Author Author `json:"author"`
	Text   string `json:"text"`
}

// Snapshot is one immutable point in the story: the full transcript so far,
// the illustration for the latest scene, and the choices offered to the user.
type Snapshot struct {
	Messages []ChatMessage `json:"messages"`
	ImageURL string        `json:"image_url,omitempty"`
	Choices  []string      `json:"choices"`
}

// NewSnapshot builds a snapshot from its parts, copying the slices so later
// mutation by the caller cannot reach into the committed state.
func NewSnapshot(messages []ChatMessage, imageURL string, choices []string) Snapshot {
	return Snapshot{
		Messages: append([]ChatMessage(nil), messages...),
		ImageURL: imageURL,
		Choices:  append([]string(nil), choices...),
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return NewSnapshot(s.Messages, s.ImageURL, s.Choices)
}
