// internal/service/promotion/domain/repository.go
package domain

import (
	"context"
	"time"
)

// Redemption 是一次成功的核销记录。ReleasedAt 非空的记录不计入次数。
type Redemption struct {
	ID             int64
	CouponID       int64
	CouponCode     string
	CustomerID     string
	OrderID        string
	DiscountAmount float64
	RedeemedAt     time.Time
	ReleasedAt     *time.Time
}

// RedeemDecision 在核销事务内被调用，传入已加锁的优惠券和事务内统计的次数。
// 返回 nil 错误时仓储写入返回的核销记录。
type RedeemDecision func(coupon *Coupon, counts UsageCounts) (*Redemption, error)

// ListFilter 是后台查询优惠券的条件。
type ListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// CouponRepository 定义了优惠券与核销记录的持久化接口。
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id int64) (*Coupon, error)
	List(ctx context.Context, filter ListFilter) ([]*Coupon, int64, error)
	Create(ctx context.Context, coupon *Coupon) error
	Update(ctx context.Context, coupon *Coupon) error

	// CountRedemptions 统计未释放的核销次数（总数与指定顾客）。
	CountRedemptions(ctx context.Context, couponID int64, customerID string) (UsageCounts, error)

	// Redeem 在一个事务内锁定优惠券行、统计次数、执行 decide 并写入核销记录，
	// 保证并发核销不会突破次数上限。
	Redeem(ctx context.Context, code, customerID string, decide RedeemDecision) (*Redemption, error)

	// Release 把订单关联的核销标记为已释放。
	Release(ctx context.Context, orderID string, at time.Time) (*Redemption, error)
}

// CategoryResolver 解析商品所属分类，用于分类白名单判断。
type CategoryResolver interface {
	CategoriesOf(ctx context.Context, productIDs []string) ([]string, error)
}
