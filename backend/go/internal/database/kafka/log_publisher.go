package kafka

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 kafka.Writer 中发布者用到的部分。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

// LogPublisher 封装了向 Kafka 发送 agent 任务进度的逻辑。
type LogPublisher struct {
	writer MessageWriter
}

// NewLogPublisher 创建一个写入 agent_logs 主题的 LogPublisher。
func NewLogPublisher(client *KafkaClient) *LogPublisher {
	return &LogPublisher{writer: newWriter(client.Config.Brokers, AgentLogTopic)}
}

// NewLogPublisherWithWriter 使用给定的 writer 创建 LogPublisher。
func NewLogPublisherWithWriter(w MessageWriter) *LogPublisher {
	return &LogPublisher{writer: w}
}

// LogTaskProgress 将 TaskLogEntry 序列化为 JSON 并发送到 Kafka，以任务 ID 作为消息键。
func (p *LogPublisher) LogTaskProgress(ctx context.Context, entry *models.TaskLogEntry) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.TaskID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *LogPublisher) Close() error {
	return p.writer.Close()
}
