package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/service/order/domain"
)

// NotificationHandler 是 Saga 流程的最后一步，发布下单事件。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.event", domain.EventOrderPlaced),
	)

	o := orderCtx.Order
	err := orderCtx.Events.PublishOrderPlaced(ctx, &domain.OrderPlaced{
		Type:        domain.EventOrderPlaced,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Total:       o.Total,
		CouponCode:  o.CouponCode,
		PlacedAt:    o.CreatedAt,
	})
	// 订单已经落库，事件发送失败不回滚
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", o.ID).Msg("Failed to publish order placed event")
		span.RecordError(err)
	}

	return h.executeNext(orderCtx)
}
