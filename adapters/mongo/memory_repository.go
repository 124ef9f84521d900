package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
)

const memoryCollection = "memory"

// MemoryRepository implements repositories.MemoryRepository using MongoDB
type MemoryRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new MongoDB memory repository
func NewMemoryRepository(db *mongo.Database, logger *zap.Logger) *MemoryRepository {
	collection := db.Collection(memoryCollection)

	// Create indexes for better performance
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Recent() sorts by timestamp
		timestampIndex := mongo.IndexModel{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		}

		sessionIndex := mongo.IndexModel{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "timestamp", Value: 1},
			},
		}

		_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
			timestampIndex,
			sessionIndex,
		})

		if err != nil {
			logger.Error("Failed to create memory indexes", zap.Error(err))
		} else {
			logger.Info("Memory indexes created successfully")
		}
	}()

	return &MemoryRepository{
		collection: collection,
		logger:     logger,
	}
}

// Append implements repositories.MemoryRepository
func (r *MemoryRepository) Append(ctx context.Context, entry *entities.MemoryEntry) error {
	if entry == nil {
		return errors.New("memory entry cannot be nil")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	oid := primitive.NewObjectID()
	doc := bson.M{
		"_id":        oid,
		"session_id": entry.SessionID,
		"role":       entry.Role,
		"content":    entry.Content,
		"timestamp":  entry.Timestamp,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to append memory entry", zap.Error(err), zap.String("session_id", entry.SessionID))
		return fmt.Errorf("failed to append memory entry: %w", err)
	}
	entry.ID = oid.Hex()
	return nil
}

// Recent implements repositories.MemoryRepository
func (r *MemoryRepository) Recent(ctx context.Context, limit int) ([]*entities.MemoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to load memory", zap.Error(err))
		return nil, fmt.Errorf("failed to load memory: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*entities.MemoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode memory: %w", err)
	}

	// Newest first from the query; callers want oldest first.
	slices.Reverse(entries)
	return entries, nil
}
