package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/adapters/filestore"
	"github.com/satriahrh/iris/adapters/input"
	"github.com/satriahrh/iris/adapters/llm"
	"github.com/satriahrh/iris/adapters/mongo"
	"github.com/satriahrh/iris/adapters/sound"
	"github.com/satriahrh/iris/adapters/system"
	"github.com/satriahrh/iris/adapters/terminal"
	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/api"
	"github.com/satriahrh/iris/internal/audio"
	"github.com/satriahrh/iris/internal/auth"
	"github.com/satriahrh/iris/internal/config"
	"github.com/satriahrh/iris/internal/live"
	"github.com/satriahrh/iris/internal/tools"
	"github.com/satriahrh/iris/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load(logger)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Storage
	notes, err := filestore.NewNoteRepository(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("Failed to open notes", zap.Error(err))
	}

	var memory repositories.MemoryRepository
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		mongoClient, err = mongo.NewClient(mongo.ClientConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		memory = mongoClient.Memory()
	} else {
		fileMemory, err := filestore.NewMemoryRepository(cfg.DataDir, logger)
		if err != nil {
			logger.Fatal("Failed to open memory", zap.Error(err))
		}
		memory = fileMemory
	}

	// Host adapters
	systemControl := system.NewControl(cfg.DataDir, nil, logger)
	injector := input.NewXdotool(nil, logger)
	runner := terminal.NewRunner(os.Getenv("SHELL"), logger)

	var textModel repositories.LargeLanguageModel
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiLLM(context.Background(), llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.TextModel,
		}, logger)
		if err != nil {
			logger.Warn("Research model unavailable", zap.Error(err))
		} else {
			textModel = gemini
		}
	}

	// Audio devices
	var source audio.Source
	var output audio.Output
	if !cfg.DisableAudio {
		terminate, err := sound.Initialize()
		if err != nil {
			logger.Warn("Audio unavailable, running without devices", zap.Error(err))
		} else {
			defer terminate()
			source = sound.NewMicrophone(sound.DefaultInputRate, cfg.FramesPerBuffer, logger)
			speaker, err := sound.OpenSpeaker(audio.OutputSampleRate, logger)
			if err != nil {
				logger.Warn("Speaker unavailable, model audio will not be heard", zap.Error(err))
			} else {
				defer speaker.Close()
				output = speaker
			}
		}
	}

	// WebSocket hub doubles as the event publisher
	hub := websocket.NewHub(nil, logger)
	go hub.Run()

	home, _ := os.UserHomeDir()
	table, err := tools.NewDefaultTable(tools.Deps{
		System:   systemControl,
		Input:    injector,
		Terminal: runner,
		Notes:    notes,
		LLM:      textModel,
		Events:   hub,
		HomeDir:  home,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to build tool table", zap.Error(err))
	}

	service := live.NewService(live.SessionConfig{
		Endpoint:          cfg.LiveEndpoint,
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.LiveModel,
		Voice:             cfg.Voice,
		OutboundQueueSize: cfg.OutboundQueueSize,
		WatchInterval:     cfg.WatchInterval,
		PlaybackLookahead: cfg.PlaybackLookahead,
	}, cfg.UserName, live.ServiceDeps{
		Dialer:    gorillaws.DefaultDialer,
		Table:     table,
		Memory:    memory,
		System:    systemControl,
		Source:    source,
		Output:    output,
		Publisher: hub,
		Logger:    logger,
	})
	hub.SetController(service)

	heartbeat := websocket.NewStatusHeartbeat(service, hub, 0, logger)
	heartbeat.Start()

	issuer, err := auth.NewIssuer(cfg.JWTSecret, auth.DefaultTokenTTL)
	if err != nil {
		logger.Fatal("Failed to create token issuer", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, &api.Handler{
		Hub:           hub,
		Session:       service,
		Memory:        memory,
		Notes:         notes,
		Issuer:        issuer,
		ControlSecret: cfg.ControlSecret,
		Logger:        logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.HTTPAddress); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("IRIS started", zap.String("address", cfg.HTTPAddress), zap.Bool("audio", source != nil))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	service.Disconnect()
	heartbeat.Stop()
	hub.Stop()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		mongoClient.Close(ctx)
	}

	logger.Info("Server exited")
}
