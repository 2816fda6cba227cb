// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Create 保存一个新订单及其商品行。
	Create(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id string) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*Order, error)
	// ListPendingBefore 返回创建时间早于 cutoff 且仍待支付的订单，按创建时间升序。
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Order, error)

	// UpdateStatus 以 from 为条件写入状态相关字段，
	// 如果订单当前状态已不是 from 则返回 ErrStatusConflict。
	UpdateStatus(ctx context.Context, order *Order, from Status) error

	// UpdatePaymentStatus 只修改支付状态。
	UpdatePaymentStatus(ctx context.Context, order *Order) error
}
