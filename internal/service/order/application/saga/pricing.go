package saga

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"teahouse/internal/service/order/domain"
)

// PricingHandler 按商品目录的当前价格为每一行定价并创建订单实体。
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Pricing")
	defer span.End()

	co := orderCtx.Checkout
	if len(co.Lines) == 0 {
		return domain.ErrEmptyOrder
	}

	ids := make([]string, 0, len(co.Lines))
	for _, l := range co.Lines {
		if !domain.ValidQuantity(l.Quantity) {
			return domain.ErrInvalidQuantity
		}
		ids = append(ids, l.ProductID)
	}

	prices, err := orderCtx.Catalog.PriceItems(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog lookup failed")
		return fmt.Errorf("catalog service error: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(co.Lines))
	for _, l := range co.Lines {
		p, ok := prices[l.ProductID]
		if !ok || !p.Active {
			return fmt.Errorf("%w: %s", domain.ErrProductUnavailable, l.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    l.Quantity,
		})
	}

	order, err := domain.NewOrder(co.OrderID, co.OrderNumber, co.CustomerID, items, co.At)
	if err != nil {
		return err
	}
	order.SetShippingFee(co.ShippingFee)
	orderCtx.Order = order

	span.SetAttributes(attribute.Float64("order.subtotal", order.Subtotal))
	span.AddEvent("Order lines priced.")

	return h.executeNext(orderCtx)
}
