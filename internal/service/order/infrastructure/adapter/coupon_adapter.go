package adapter

import (
	"context"

	"teahouse/internal/service/order/domain/port"
	promotion "teahouse/internal/service/promotion/application"
	promodomain "teahouse/internal/service/promotion/domain"
)

// CouponAdapter 在进程内调用优惠服务，实现 port.CouponService。
type CouponAdapter struct {
	svc *promotion.PromotionService
}

func NewCouponAdapter(svc *promotion.PromotionService) *CouponAdapter {
	return &CouponAdapter{svc: svc}
}

func (a *CouponAdapter) Redeem(ctx context.Context, code, customerID, orderID string, subtotal float64, productIDs []string) (port.CouponResult, error) {
	resp, err := a.svc.RedeemCoupon(ctx, &promotion.RedeemCouponRequest{
		ValidateCouponRequest: promotion.ValidateCouponRequest{
			Code:       code,
			CustomerID: customerID,
			Subtotal:   subtotal,
			ProductIDs: productIDs,
		},
		OrderID: orderID,
	})
	if err != nil {
		return port.CouponResult{}, err
	}
	if !resp.Valid {
		return port.CouponResult{Reason: resp.Error}, nil
	}
	return port.CouponResult{
		Applied:      true,
		Code:         resp.CouponCode,
		FreeShipping: resp.DiscountType == promodomain.DiscountTypeFreeShipping,
		Discount:     resp.DiscountAmount,
	}, nil
}

func (a *CouponAdapter) Release(ctx context.Context, orderID string) error {
	return a.svc.ReleaseRedemption(ctx, orderID)
}
