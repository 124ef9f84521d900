package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
)

// TestMemoryRepository_Integration requires a running MongoDB instance
// (skipped if MONGODB_URI is not set)
func TestMemoryRepository_Integration(t *testing.T) {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		t.Skip("Skipping MongoDB integration test - MONGODB_URI not set")
	}

	ctx := context.Background()
	logger := zap.NewNop()

	client, err := NewClient(ClientConfig{URI: mongoURI, Database: "iris_test"}, logger)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(ctx)
	defer client.Database.Drop(ctx)

	repo := client.Memory()

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		entry := entities.NewMemoryEntry("session-1", entities.MessageRoleUser, text)
		entry.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Append(ctx, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if entry.ID == "" {
			t.Error("Expected id to be set after append")
		}
	}

	entries, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != "second" || entries[1].Content != "third" {
		t.Errorf("Expected oldest first, got %s, %s", entries[0].Content, entries[1].Content)
	}
	if entries[0].ID == "" || entries[0].SessionID != "session-1" {
		t.Errorf("Unexpected decoded entry %+v", entries[0])
	}
}

func TestMemoryRepository_RejectsInvalid(t *testing.T) {
	repo := &MemoryRepository{logger: zap.NewNop()}

	if err := repo.Append(context.Background(), nil); err == nil {
		t.Error("Expected nil entry to be rejected")
	}
	if err := repo.Append(context.Background(), &entities.MemoryEntry{Role: "robot", Content: "x"}); err == nil {
		t.Error("Expected invalid role to be rejected")
	}
}

func TestNewClient_EmptyURI(t *testing.T) {
	if _, err := NewClient(ClientConfig{Database: "iris"}, zap.NewNop()); err == nil {
		t.Error("Expected error for empty uri")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := ClientConfig{URI: "mongodb://localhost:27017"}
	opts, err := clientOptions(&cfg)
	if err != nil {
		t.Fatalf("clientOptions failed: %v", err)
	}
	if cfg.Database != defaultDatabase {
		t.Errorf("Expected default database, got %q", cfg.Database)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != defaultMaxPoolSize {
		t.Errorf("Expected pool size %d, got %v", defaultMaxPoolSize, opts.MaxPoolSize)
	}
	if opts.AppName == nil || *opts.AppName != appName {
		t.Errorf("Expected app name %q, got %v", appName, opts.AppName)
	}
	if opts.ConnectTimeout == nil || *opts.ConnectTimeout != defaultConnectTimeout {
		t.Errorf("Expected connect timeout %s, got %v", defaultConnectTimeout, opts.ConnectTimeout)
	}

	custom := ClientConfig{URI: "mongodb://db:27017", Database: "desk", MaxPoolSize: 3, ConnectTimeout: 2 * time.Second}
	opts, err = clientOptions(&custom)
	if err != nil {
		t.Fatalf("clientOptions failed: %v", err)
	}
	if custom.Database != "desk" || *opts.MaxPoolSize != 3 || *opts.ServerSelectionTimeout != time.Second {
		t.Errorf("Expected explicit values kept, got %+v", custom)
	}

	if _, err := clientOptions(&ClientConfig{URI: "http://not-mongo"}); err == nil {
		t.Error("Expected error for non-mongodb scheme")
	}
}
