package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"taleweaver/client/internal/generators"
	"taleweaver/client/internal/interfaces"
	"taleweaver/client/internal/story"
)

// ApologyText is appended to the visible chat when a turn fails outright.
// It lives only in the pending overlay; the committed history never sees it.
const ApologyText = "I'm sorry, the story thread slipped away from me for a moment. Please try that again."

// Orchestrator resolves user turns against the generation and media
// collaborators and commits each finished turn atomically: the story text,
// its illustration and all narration payloads land in history together or
// not at all.
type Orchestrator struct {
	generator interfaces.StoryGenerator
	speech    interfaces.SpeechSynthesizer
	images    interfaces.IllustrationGenerator
	moods     interfaces.MoodClassifier
	memory    interfaces.MemoryRecall

	tracks      map[string]string
	defaultMood string

	logger *log.Logger
}

// NewOrchestrator wires the turn pipeline. memory may be nil; tracks maps
// mood names to ambiance URLs and may be empty.
func NewOrchestrator(
	generator interfaces.StoryGenerator,
	speech interfaces.SpeechSynthesizer,
	images interfaces.IllustrationGenerator,
	moods interfaces.MoodClassifier,
	memory interfaces.MemoryRecall,
	tracks map[string]string,
	defaultMood string,
) *Orchestrator {
	if defaultMood == "" {
		defaultMood = generators.DefaultMood
	}
	return &Orchestrator{
		generator:   generator,
		speech:      speech,
		images:      images,
		moods:       moods,
		memory:      memory,
		tracks:      tracks,
		defaultMood: defaultMood,
		logger:      log.With("component", "orchestrator"),
	}
}

// SubmitTurn runs one complete turn for the session.
//
// The user message appears in the visible chat immediately via the pending
// overlay. The committed history only changes once generation has succeeded
// and the illustration, mood and every narration payload have resolved. On
// generation failure the overlay carries the apology and ErrTurnFailed is
// returned with history untouched.
func (o *Orchestrator) SubmitTurn(ctx context.Context, sess *Session, input string) (story.Snapshot, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return story.Snapshot{}, ErrEmptyInput
	}
	if o.generator == nil {
		return story.Snapshot{}, ErrNoGenerator
	}
	if !sess.inFlight.CompareAndSwap(false, true) {
		return story.Snapshot{}, ErrTurnInFlight
	}
	defer sess.inFlight.Store(false)

	sess.Narration.Cancel()

	userMsg := story.ChatMessage{Author: story.AuthorUser, Text: input}
	sess.setPending([]story.ChatMessage{userMsg})

	var memories []string
	if o.memory != nil {
		memories = o.memory.RelatedMemories(ctx, sess.ID, input)
	}

	committed := sess.History.Current()
	payload, err := o.generator.GenerateTurn(ctx, committed.Messages, input, memories)
	if err != nil {
		o.logger.Error("story generation failed", "session", sess.ID, "err", err)
		sess.setPending([]story.ChatMessage{
			userMsg,
			{Author: story.AuthorModel, Text: ApologyText},
		})
		return story.Snapshot{}, ErrTurnFailed
	}

	segments := story.DeriveSegments(payload.Story)
	voiceIDs := make([]string, len(segments))
	for i, seg := range segments {
		voiceIDs[i] = sess.Voices.Assign(seg.Speaker)
	}

	// Resolve the illustration, the mood and every narration segment in
	// parallel, then join before committing anything. Narration payloads
	// keep segment order regardless of which synthesis call finishes first.
	var (
		wg       sync.WaitGroup
		imageURL string
		mood     string
		clips    = make([]string, len(segments))
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		imageURL = o.images.Generate(ctx, generators.BuildScenePrompt(payload.Story))
	}()
	go func() {
		defer wg.Done()
		mood = o.moods.Classify(ctx, payload.Story)
	}()

	for i, seg := range segments {
		wg.Add(1)
		go func(i int, text, voiceID string) {
			defer wg.Done()
			clip, err := o.speech.Synthesize(ctx, text, voiceID)
			if err != nil {
				o.logger.Warn("segment synthesis failed, skipping clip",
					"session", sess.ID, "segment", i, "err", err)
				return
			}
			clips[i] = clip
		}(i, seg.Text, voiceIDs[i])
	}
	wg.Wait()

	messages := append(committed.Messages, userMsg,
		story.ChatMessage{Author: story.AuthorModel, Text: payload.Story})
	next := story.NewSnapshot(messages, imageURL, payload.Choices)
	sess.History.Commit(next)
	sess.clearPending()

	o.startAmbiance(sess, mood)

	playable := make([]string, 0, len(clips))
	for _, c := range clips {
		if c != "" {
			playable = append(playable, c)
		}
	}
	sess.Narration.EnqueueReplace(playable)

	if o.memory != nil {
		go o.memory.StoreTurn(context.Background(), sess.ID, input, payload.Story)
	}

	return next, nil
}

// startAmbiance switches the session's background track to the one mapped to
// the mood, falling back to the default mood's track. Switch failures are
// logged and absorbed; ambiance never blocks or fails a committed turn.
func (o *Orchestrator) startAmbiance(sess *Session, mood string) {
	url, ok := o.tracks[mood]
	if !ok {
		mood = o.defaultMood
		url = o.tracks[mood]
	}
	if url == "" {
		return
	}

	go func() {
		if err := sess.Ambiance.SwitchTo(context.Background(), mood, url); err != nil {
			o.logger.Warn("ambiance switch failed", "session", sess.ID, "mood", mood, "err", err)
		}
	}()
}
