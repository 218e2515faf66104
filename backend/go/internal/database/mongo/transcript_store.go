package mongo

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transcriptCollection = "agent_transcripts"

// ErrTranscriptNotFound 表示没有对应任务的对话记录。
var ErrTranscriptNotFound = errors.New("transcript not found")

// TranscriptStore 将每次 agent 调用的完整消息记录归档到 MongoDB。
type TranscriptStore struct {
	collection *mongo.Collection
}

// NewTranscriptStore 创建一个新的 TranscriptStore 实例。
func NewTranscriptStore(client *mongo.Client, dbName string) *TranscriptStore {
	return &TranscriptStore{collection: client.Database(dbName).Collection(transcriptCollection)}
}

// SaveTranscript 以任务 ID 为主键写入或覆盖对话记录。
func (s *TranscriptStore) SaveTranscript(ctx context.Context, t *models.Transcript) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": t.TaskID}, t, opts)
	if err != nil {
		return fmt.Errorf("failed to save transcript for task %s: %w", t.TaskID, err)
	}
	return nil
}

// GetTranscript 读取指定任务的对话记录。
func (s *TranscriptStore) GetTranscript(ctx context.Context, taskID string) (*models.Transcript, error) {
	var t models.Transcript
	err := s.collection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTranscriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript for task %s: %w", taskID, err)
	}
	return &t, nil
}
