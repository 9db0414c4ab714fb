package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"vikas-assistant-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository persists the conversation history of chat sessions.
type MessageRepository interface {
	Save(ctx context.Context, msg *models.Message) error
	// ListBySession returns the latest limit messages, oldest first.
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

type MongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection(messagesCollection)}
}

func (r *MongoMessageRepository) Save(ctx context.Context, msg *models.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MongoMessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	reverse(messages)
	return messages, nil
}

func (r *MongoMessageRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return res.DeletedCount, nil
}

// MemoryMessageRepository keeps history in process memory when MongoDB is
// not configured. History is lost on restart.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	sessions map[string][]models.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{sessions: make(map[string][]models.Message)}
}

func (r *MemoryMessageRepository) Save(ctx context.Context, msg *models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[msg.SessionID] = append(r.sessions[msg.SessionID], *msg)
	return nil
}

func (r *MemoryMessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	stored := r.sessions[sessionID]
	messages := make([]models.Message, len(stored))
	copy(messages, stored)
	r.mu.RUnlock()

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (r *MemoryMessageRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.sessions[sessionID]))
	delete(r.sessions, sessionID)
	return n, nil
}

func reverse(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
