package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultDatabase       = "iris"
	defaultMaxPoolSize    = 10
	defaultConnectTimeout = 10 * time.Second
	appName               = "iris"
)

// ClientConfig selects the deployment holding the assistant's memory
type ClientConfig struct {
	URI      string
	Database string
	// MaxPoolSize caps connections; the assistant writes at most a few entries per turn
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// Client wraps the MongoDB client and the memory database
type Client struct {
	*mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

// clientOptions validates cfg, fills defaults and returns the driver options
func clientOptions(cfg *ClientConfig) (*options.ClientOptions, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Minute).
		SetServerSelectionTimeout(cfg.ConnectTimeout / 2).
		SetConnectTimeout(cfg.ConnectTimeout)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongodb uri: %w", err)
	}
	return opts, nil
}

// NewClient connects, verifies the deployment with a ping and selects the memory database
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	opts, err := clientOptions(&cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB memory store", zap.String("database", cfg.Database))

	return &Client{
		Client:   client,
		Database: client.Database(cfg.Database),
		logger:   logger,
	}, nil
}

// Memory returns the conversation memory repository backed by this client
func (c *Client) Memory() *MemoryRepository {
	return NewMemoryRepository(c.Database, c.logger)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if err := c.Client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		return err
	}
	c.logger.Info("Disconnected from MongoDB")
	return nil
}
