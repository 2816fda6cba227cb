package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"teahouse/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create 在一个事务中写入订单和商品行
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := fromDomainOrder(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrapf(err, "create order %s", order.ID)
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number = ?", number)
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").Where(query, arg).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Order, error) {
	var models []*OrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = toDomainOrder(m)
	}
	return orders, nil
}

func (r *GormOrderRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	var models []*OrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND payment_status <> ? AND created_at < ?", string(domain.StatusPending), string(domain.PaymentPaid), cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list pending orders")
	}
	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = toDomainOrder(m)
	}
	return orders, nil
}

// UpdateStatus 执行 UPDATE ... WHERE id = ? AND status = ?，影响行数为 0 说明状态已被并发修改
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, from domain.Status) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", order.ID, string(from)).
		Updates(statusColumns(order))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update order %s status", order.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

func (r *GormOrderRepository) UpdatePaymentStatus(ctx context.Context, order *domain.Order) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", order.ID, string(order.Status)).
		Updates(map[string]any{
			"payment_status": string(order.PaymentStatus),
			"updated_at":     order.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update order %s payment status", order.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}
