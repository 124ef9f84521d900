package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultHTTPAddress     = "127.0.0.1:8765"
	defaultLiveEndpoint    = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultLiveModel       = "models/gemini-2.5-flash-native-audio-preview-12-2025"
	defaultVoice           = "Puck"
	defaultTextModel       = "gemini-2.0-flash"
	defaultUserName        = "User"
	defaultMongoDatabase   = "iris"
	defaultWatchInterval   = 3 * time.Second
	defaultOutboundQueue   = 64
	defaultLookahead       = 50 * time.Millisecond
	defaultFramesPerBuffer = 2048
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	GeminiAPIKey string
	LiveEndpoint string
	LiveModel    string
	Voice        string
	TextModel    string
	UserName     string

	ControlSecret string
	JWTSecret     []byte

	DataDir       string
	MongoURI      string
	MongoDatabase string

	WatchInterval     time.Duration
	OutboundQueueSize int
	PlaybackLookahead time.Duration
	FramesPerBuffer   int
	DisableAudio      bool
}

// Load reads environment variables (and .env when present) and returns Config with defaults applied.
func Load(logger *zap.Logger) Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := Config{
		HTTPAddress:   getEnv("HTTP_ADDRESS", defaultHTTPAddress),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		LiveEndpoint:  getEnv("IRIS_LIVE_ENDPOINT", defaultLiveEndpoint),
		LiveModel:     getEnv("IRIS_LIVE_MODEL", defaultLiveModel),
		Voice:         getEnv("IRIS_VOICE", defaultVoice),
		TextModel:     getEnv("IRIS_TEXT_MODEL", defaultTextModel),
		UserName:      getEnv("IRIS_USER_NAME", defaultUserName),
		ControlSecret: os.Getenv("IRIS_CONTROL_SECRET"),
		DataDir:       os.Getenv("IRIS_DATA_DIR"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", defaultMongoDatabase),
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set - live sessions will not connect")
	}
	if cfg.ControlSecret == "" {
		logger.Warn("IRIS_CONTROL_SECRET not set - any local client can obtain a control token")
	}

	if secret := os.Getenv("IRIS_JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		cfg.JWTSecret = randomSecret()
		logger.Info("Using random JWT secret for this process")
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.DataDir = filepath.Join(home, ".iris")
		logger.Info("Using default data directory", zap.String("dataDir", cfg.DataDir))
	}

	cfg.WatchInterval = getDuration(logger, "IRIS_WATCH_INTERVAL", defaultWatchInterval)
	cfg.PlaybackLookahead = getDuration(logger, "IRIS_PLAYBACK_LOOKAHEAD", defaultLookahead)
	cfg.OutboundQueueSize = getInt(logger, "IRIS_OUTBOUND_QUEUE", defaultOutboundQueue)
	cfg.FramesPerBuffer = getInt(logger, "IRIS_FRAMES_PER_BUFFER", defaultFramesPerBuffer)
	cfg.DisableAudio, _ = strconv.ParseBool(os.Getenv("IRIS_DISABLE_AUDIO"))

	return cfg
}

// Validate checks values that would otherwise fail deep inside the session.
func (c Config) Validate() error {
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", c.WatchInterval)
	}
	if c.OutboundQueueSize <= 0 {
		return fmt.Errorf("outbound queue size must be positive, got %d", c.OutboundQueueSize)
	}
	if c.PlaybackLookahead < 0 {
		return fmt.Errorf("playback lookahead must not be negative, got %s", c.PlaybackLookahead)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("frames per buffer must be positive, got %d", c.FramesPerBuffer)
	}
	if c.LiveEndpoint == "" || c.LiveModel == "" {
		return fmt.Errorf("live endpoint and model are required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(logger *zap.Logger, key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("Invalid integer in environment, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Int("default", defaultValue))
		return defaultValue
	}
	return v
}

func getDuration(logger *zap.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("Invalid duration in environment, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Duration("default", defaultValue))
		return defaultValue
	}
	return v
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return []byte("iris-local-secret")
	}
	return []byte(hex.EncodeToString(buf))
}
