package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Audio    AudioConfig    `yaml:"audio"`
	Memory   MemoryConfig   `yaml:"memory"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	VectorSize int    `yaml:"vector_size"`
}

type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
}

type OpenAIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	StoryModel     string  `yaml:"story_model"`
	MoodModel      string  `yaml:"mood_model"`
	SpeechModel    string  `yaml:"speech_model"`
	ImageModel     string  `yaml:"image_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

type AudioConfig struct {
	SampleRate      int               `yaml:"sample_rate"`
	Channels        int               `yaml:"channels"`
	AmbianceVolume  float64           `yaml:"ambiance_volume"`
	CrossfadeSec    float64           `yaml:"crossfade_sec"`
	MuteRampSec     float64           `yaml:"mute_ramp_sec"`
	AmbianceTracks  map[string]string `yaml:"ambiance_tracks"` // mood key -> resource URL
	MinAmbianceSize int               `yaml:"min_ambiance_size"`
}

type MemoryConfig struct {
	SearchLimit           int `yaml:"search_limit"`
	MaxMemoriesPerSession int `yaml:"max_memories_per_session"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	// Apply environment variable overrides
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("QDRANT_API_KEY"); apiKey != "" {
		cfg.Database.Qdrant.APIKey = apiKey
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.AI.OpenAI.StoryModel == "" {
		c.AI.OpenAI.StoryModel = "gpt-4o-mini"
	}
	if c.AI.OpenAI.MoodModel == "" {
		c.AI.OpenAI.MoodModel = c.AI.OpenAI.StoryModel
	}
	if c.AI.OpenAI.SpeechModel == "" {
		c.AI.OpenAI.SpeechModel = "tts-1"
	}
	if c.AI.OpenAI.ImageModel == "" {
		c.AI.OpenAI.ImageModel = "dall-e-3"
	}
	if c.AI.OpenAI.EmbeddingModel == "" {
		c.AI.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.AI.OpenAI.MaxTokens == 0 {
		c.AI.OpenAI.MaxTokens = 1000
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 24000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.AmbianceVolume == 0 {
		c.Audio.AmbianceVolume = 0.35
	}
	if c.Audio.CrossfadeSec == 0 {
		c.Audio.CrossfadeSec = 1.5
	}
	if c.Audio.MuteRampSec == 0 {
		c.Audio.MuteRampSec = 0.5
	}
	if c.Audio.MinAmbianceSize == 0 {
		c.Audio.MinAmbianceSize = 4096
	}
	if c.Memory.SearchLimit == 0 {
		c.Memory.SearchLimit = 10
	}
	if c.Database.Qdrant.Collection == "" {
		c.Database.Qdrant.Collection = "taleweaver_memories"
	}
	if c.Database.Qdrant.VectorSize == 0 {
		c.Database.Qdrant.VectorSize = 1536
	}
}
