// Package filestore keeps memory and notes on the local disk under the IRIS
// data directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
)

const (
	memoryDir      = "Chat"
	memoryFile     = "iris_memory.json"
	maxMemoryItems = 1000
)

// MemoryRepository stores conversation memory as one JSON array
type MemoryRepository struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

var _ repositories.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a repository rooted at dataDir
func NewMemoryRepository(dataDir string, logger *zap.Logger) (*MemoryRepository, error) {
	dir := filepath.Join(dataDir, memoryDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &MemoryRepository{
		path:   filepath.Join(dir, memoryFile),
		logger: logger,
	}, nil
}

// Append adds an entry, keeping at most maxMemoryItems of the newest entries
func (r *MemoryRepository) Append(ctx context.Context, entry *entities.MemoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entries = append(entries, entry)
	if len(entries) > maxMemoryItems {
		entries = entries[len(entries)-maxMemoryItems:]
	}
	return r.save(entries)
}

// Recent returns up to limit entries, oldest first
func (r *MemoryRepository) Recent(ctx context.Context, limit int) ([]*entities.MemoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (r *MemoryRepository) load() ([]*entities.MemoryEntry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory: %w", err)
	}

	var entries []*entities.MemoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt file must not take the assistant down; start over.
		r.logger.Error("Memory file is corrupt, starting fresh", zap.String("path", r.path), zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

func (r *MemoryRepository) save(entries []*entities.MemoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write memory: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace memory: %w", err)
	}
	return nil
}
