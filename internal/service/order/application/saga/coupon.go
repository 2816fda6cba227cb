package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/service/order/domain"
)

// CouponHandler 核销优惠券并登记释放核销的补偿。
type CouponHandler struct {
	NextHandler
}

func (h *CouponHandler) Handle(orderCtx *OrderContext) error {
	co := orderCtx.Checkout
	if co.CouponCode == "" {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Coupon")
	defer span.End()
	span.SetAttributes(attribute.String("coupon.code", co.CouponCode))

	order := orderCtx.Order
	productIDs := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		productIDs = append(productIDs, it.ProductID)
	}

	result, err := orderCtx.Coupons.Redeem(ctx, co.CouponCode, co.CustomerID, co.OrderID, order.Subtotal, productIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "coupon redemption failed")
		return fmt.Errorf("coupon service error: %w", err)
	}
	if !result.Applied {
		span.AddEvent("Coupon rejected.")
		return fmt.Errorf("%w: %s", domain.ErrCouponRejected, result.Reason)
	}

	orderCtx.AddCompensation(func(ctx context.Context) {
		if err := orderCtx.Coupons.Release(ctx, co.OrderID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order_id", co.OrderID).Msg("CRITICAL: failed to release coupon redemption")
		}
	})
	order.ApplyDiscount(result.Code, result.Discount, result.FreeShipping)
	span.SetAttributes(attribute.Float64("coupon.discount", result.Discount))

	return h.executeNext(orderCtx)
}
