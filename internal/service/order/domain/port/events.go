package port

import (
	"context"

	"teahouse/internal/service/order/domain"
)

// EventPublisher 是订单事件的出站端口。
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error
	PublishStatusChanged(ctx context.Context, event *domain.StatusChanged) error
}
