package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  host: \"0.0.0.0\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24000, cfg.Audio.SampleRate)
	assert.Equal(t, 1, cfg.Audio.Channels)
	assert.Equal(t, 0.35, cfg.Audio.AmbianceVolume)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.OpenAI.StoryModel)
	assert.Equal(t, cfg.AI.OpenAI.StoryModel, cfg.AI.OpenAI.MoodModel)
	assert.Equal(t, "taleweaver_memories", cfg.Database.Qdrant.Collection)
	assert.Equal(t, 1536, cfg.Database.Qdrant.VectorSize)
}

func TestLoadParsesAmbianceTracks(t *testing.T) {
	path := writeConfig(t, `
audio:
  sample_rate: 48000
  ambiance_tracks:
    calm: "https://cdn.example.com/calm.mp3"
    tense: "https://cdn.example.com/tense.mp3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, "https://cdn.example.com/calm.mp3", cfg.Audio.AmbianceTracks["calm"])
	assert.Len(t, cfg.Audio.AmbianceTracks, 2)
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, "ai:\n  openai:\n    api_key: \"from-file\"\n")

	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AI.OpenAI.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
