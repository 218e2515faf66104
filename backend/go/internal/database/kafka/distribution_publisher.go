package kafka

import (
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// DistributionPublisher 将政策分发请求发送到 policy_distributions 主题。
type DistributionPublisher struct {
	writer MessageWriter
}

// NewDistributionPublisher 创建一个新的 DistributionPublisher 实例。
func NewDistributionPublisher(client *KafkaClient) *DistributionPublisher {
	return &DistributionPublisher{writer: newWriter(client.Config.Brokers, DistributionTopic)}
}

// NewDistributionPublisherWithWriter 使用给定的 writer 创建 DistributionPublisher。
func NewDistributionPublisherWithWriter(w MessageWriter) *DistributionPublisher {
	return &DistributionPublisher{writer: w}
}

// PublishDistributions 批量发送分发请求，以政策 ID 作为消息键保证同一政策的顺序。
func (p *DistributionPublisher) PublishDistributions(ctx context.Context, reqs []models.DistributionRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(reqs))
	for _, r := range reqs {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal distribution request: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.PolicyID), Value: data})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write distribution requests to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *DistributionPublisher) Close() error {
	return p.writer.Close()
}
