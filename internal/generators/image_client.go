package generators

import (
	"context"
	"fmt"
	"math/rand"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"taleweaver/client/internal/story"
)

// PlaceholderImageURL is returned whenever illustration generation fails, so
// every committed turn still carries a usable image reference.
const PlaceholderImageURL = "/static/placeholder_scene.png"

const maxScenePromptLen = 600

var (
	promptAdjectives = []string{"whimsical", "dreamy", "vivid", "gentle", "enchanting", "misty"}
	promptStyles     = []string{"storybook watercolor", "soft digital painting", "children's book illustration", "warm gouache"}
	promptDetails    = []string{"soft golden light", "rich detail", "a sense of wonder", "muted twilight colors"}
)

// ImageClient renders scene illustrations through an image model.
type ImageClient struct {
	client *openai.Client
	model  string
	logger *log.Logger
}

// NewImageClient creates an illustration client.
func NewImageClient(client *openai.Client, model string) *ImageClient {
	return &ImageClient{client: client, model: model, logger: log.With("component", "image-client")}
}

// BuildScenePrompt derives an illustration prompt from story text: a
// randomized adjective/style/detail template followed by the markup-stripped
// text, truncated to a bounded length.
func BuildScenePrompt(storyText string) string {
	scene := story.StripMarkup(storyText)
	if len(scene) > maxScenePromptLen {
		// Walk back to a rune boundary so the cut never emits invalid UTF-8.
		cut := maxScenePromptLen
		for cut > 0 && !utf8.RuneStart(scene[cut]) {
			cut--
		}
		scene = scene[:cut]
	}
	return fmt.Sprintf("A %s %s of the following scene, %s: %s",
		promptAdjectives[rand.Intn(len(promptAdjectives))],
		promptStyles[rand.Intn(len(promptStyles))],
		promptDetails[rand.Intn(len(promptDetails))],
		scene,
	)
}

// Generate requests an illustration for the prompt. Failures are absorbed
// here: the caller always receives a URL, falling back to the placeholder.
func (c *ImageClient) Generate(ctx context.Context, prompt string) string {
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		c.logger.Warn("illustration generation failed, using placeholder", "err", err)
		return PlaceholderImageURL
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		c.logger.Warn("illustration response empty, using placeholder")
		return PlaceholderImageURL
	}
	return resp.Data[0].URL
}
