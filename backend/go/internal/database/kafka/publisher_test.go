package kafka

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestLogPublisher_KeysByTaskID(t *testing.T) {
	w := &recordingWriter{}
	p := NewLogPublisherWithWriter(w)

	entry := &models.TaskLogEntry{
		TaskID:    "task-1",
		Iteration: 2,
		Timestamp: time.Now(),
		Status:    models.StatusCallingTool,
		Message:   "assess_risk",
	}
	require.NoError(t, p.LogTaskProgress(context.Background(), entry))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "task-1", string(w.msgs[0].Key))

	var decoded models.TaskLogEntry
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, models.StatusCallingTool, decoded.Status)
	assert.Equal(t, 2, decoded.Iteration)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestLogPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewLogPublisherWithWriter(&recordingWriter{err: boom})
	err := p.LogTaskProgress(context.Background(), &models.TaskLogEntry{TaskID: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDistributionPublisher_OneMessagePerRecipient(t *testing.T) {
	w := &recordingWriter{}
	p := NewDistributionPublisherWithWriter(w)

	reqs := []models.DistributionRequest{
		{DistributionID: "d1", PolicyID: "p1", Channel: models.ChannelEmail, Recipient: "a@example.com"},
		{DistributionID: "d2", PolicyID: "p1", Channel: models.ChannelEmail, Recipient: "b@example.com"},
	}
	require.NoError(t, p.PublishDistributions(context.Background(), reqs))
	require.Len(t, w.msgs, 2)
	for _, m := range w.msgs {
		assert.Equal(t, "p1", string(m.Key))
	}

	require.NoError(t, p.PublishDistributions(context.Background(), nil))
	assert.Len(t, w.msgs, 2)
}

func TestRequiredTopics_Dedup(t *testing.T) {
	topics := RequiredTopics(&config.KafkaConfig{Topics: []string{"extra", AgentLogTopic, ""}})
	assert.Equal(t, []string{AgentLogTopic, DistributionTopic, "extra"}, topics)
}
