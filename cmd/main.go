package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"taleweaver/client/internal/audio"
	"taleweaver/client/internal/config"
	"taleweaver/client/internal/engine"
	"taleweaver/client/internal/generators"
	"taleweaver/client/internal/interfaces"
	"taleweaver/client/internal/rag"
	"taleweaver/client/internal/storage"
	"taleweaver/client/internal/web"
)

func main() {
	// Local .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	if level, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}

	// Storage connections degrade to nil: the story still runs without
	// persistence, save endpoints report unavailable.
	mysqlStore, err := storage.NewMySQLStore(cfg.Database.MySQL)
	if err != nil {
		log.Warn("mysql unavailable, named save slots disabled", "err", err)
		mysqlStore = nil
	} else {
		defer mysqlStore.Close()
		log.Info("mysql connected")
	}

	redisStore, err := storage.NewRedisStore(cfg.Database.Redis)
	if err != nil {
		log.Warn("redis unavailable, quick saves disabled", "err", err)
		redisStore = nil
	} else {
		defer redisStore.Close()
		log.Info("redis connected")
	}

	apiKey := cfg.AI.OpenAI.APIKey
	if apiKey == "" {
		log.Warn("no OpenAI API key provided, generation will fail")
	}
	aiClient := generators.NewOpenAIClient(apiKey, cfg.AI.OpenAI.BaseURL)

	// Long-range story memory is best-effort: a missing vector store just
	// means prompts go out without recalled context.
	var memory *rag.MemoryStore
	qdrantClient, err := rag.NewQdrantClient(
		cfg.Database.Qdrant.Host, cfg.Database.Qdrant.Port, cfg.Database.Qdrant.APIKey)
	if err != nil {
		log.Warn("qdrant unavailable, story memory disabled", "err", err)
	} else {
		embedder := rag.NewEmbeddingService(aiClient, cfg.AI.OpenAI.EmbeddingModel)
		memory = rag.NewMemoryStore(qdrantClient, embedder,
			cfg.Database.Qdrant.Collection, cfg.Database.Qdrant.VectorSize, cfg.Memory.SearchLimit)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := memory.Initialize(ctx); err != nil {
			log.Warn("failed to initialize memory collection", "err", err)
		}
		cancel()
		log.Info("qdrant connected", "collection", cfg.Database.Qdrant.Collection)
	}

	factory := audio.OtoContextFactory()
	decoder := audio.NewDecoder(cfg.Audio.SampleRate, cfg.Audio.Channels)

	manager := engine.NewSessionManager(func() (engine.NarrationControl, engine.AmbianceControl) {
		narration := audio.NewNarrationPlayer(factory, decoder, cfg.Audio.SampleRate, cfg.Audio.Channels)
		ambiance := audio.NewAmbiancePlayer(factory, decoder, cfg.Audio.SampleRate, cfg.Audio.Channels,
			audio.AmbianceOptions{
				Volume:      cfg.Audio.AmbianceVolume,
				Crossfade:   time.Duration(cfg.Audio.CrossfadeSec * float64(time.Second)),
				MuteRamp:    time.Duration(cfg.Audio.MuteRampSec * float64(time.Second)),
				MinByteSize: cfg.Audio.MinAmbianceSize,
			})
		return narration, ambiance
	})

	var recall interfaces.MemoryRecall
	if memory != nil {
		recall = memory
	}
	orchestrator := engine.NewOrchestrator(
		generators.NewStoryClient(aiClient, cfg.AI.OpenAI.StoryModel, cfg.AI.OpenAI.Temperature, cfg.AI.OpenAI.MaxTokens),
		generators.NewSpeechClient(aiClient, cfg.AI.OpenAI.SpeechModel),
		generators.NewImageClient(aiClient, cfg.AI.OpenAI.ImageModel),
		generators.NewMoodClient(aiClient, cfg.AI.OpenAI.MoodModel),
		recall,
		cfg.Audio.AmbianceTracks,
		generators.DefaultMood,
	)

	hub := web.NewEventHub()
	go hub.Run()

	handlers := web.NewSessionHandlers(manager, orchestrator, redisStore, mysqlStore, hub)
	r := web.NewRouter(handlers)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "err", err)
	}

	log.Info("server stopped")
}
