package outbound

import (
	"context"

	"MarketMood/internal/domain/models"
	pkgkafka "MarketMood/pkg/kafka"
)

// Kafka publishes notifications to a topic instead of pushing them to a chat
// API, for deployments where delivery is handled downstream. Keyed by
// destination so one subscriber's messages stay ordered.
type Kafka struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafka(producer *pkgkafka.Producer, topic string) *Kafka {
	if topic == "" {
		topic = "marketmood.notifications"
	}
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) Send(ctx context.Context, destination string, n *models.Notification) error {
	if err := k.producer.Publish(ctx, k.topic, []byte(destination), n); err != nil {
		return models.NewSendError(destination, models.SendUnreachable, err)
	}
	return nil
}
