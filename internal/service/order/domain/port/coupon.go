package port

import "context"

// CouponResult 是核销优惠券的结果，Applied 为 false 时 Reason 给出拒绝原因。
type CouponResult struct {
	Applied      bool
	Code         string
	FreeShipping bool
	Discount     float64
	Reason       string
}

// CouponService 是优惠服务的出站端口。
type CouponService interface {
	Redeem(ctx context.Context, code, customerID, orderID string, subtotal float64, productIDs []string) (CouponResult, error)
	// Release 是 Redeem 的补偿操作
	Release(ctx context.Context, orderID string) error
}
