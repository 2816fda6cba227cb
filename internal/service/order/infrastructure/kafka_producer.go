package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/pkg/mq"
	"teahouse/internal/service/order/domain"
)

// OrderEventKafkaAdapter 实现了 port.EventPublisher，事件以订单 ID 为 key，
// 同一订单的事件落在同一分区，保持先后顺序。
type OrderEventKafkaAdapter struct {
	writer mq.MessageWriter
}

func NewOrderEventKafkaAdapter(writer mq.MessageWriter) *OrderEventKafkaAdapter {
	return &OrderEventKafkaAdapter{writer: writer}
}

func (p *OrderEventKafkaAdapter) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error {
	return p.publish(ctx, event.OrderID, event.Type, event)
}

func (p *OrderEventKafkaAdapter) PublishStatusChanged(ctx context.Context, event *domain.StatusChanged) error {
	return p.publish(ctx, event.OrderID, event.Type, event)
}

func (p *OrderEventKafkaAdapter) publish(ctx context.Context, key, eventType string, event any) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal order event")
		return err
	}

	err = mq.ProduceMessage(ctx, p.writer, []byte(key), eventBytes,
		kafka.Header{Key: mq.HeaderEventType, Value: []byte(eventType)})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("Failed to produce message to Kafka")
		return err
	}
	return nil
}
