package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teahouse/internal/pkg/database"
	"teahouse/internal/service/promotion/domain"
)

// GormCouponRepository 是 CouponRepository 的 GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository 创建一个新的 GORM 仓储实例
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByCode 使用 GORM 从数据库中查找优惠券，code 需已规范化
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, errors.Wrapf(err, "find coupon %s", code)
	}
	return toDomainCoupon(&model), nil
}

func (r *GormCouponRepository) FindByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, errors.Wrapf(err, "find coupon %d", id)
	}
	return toDomainCoupon(&model), nil
}

func (r *GormCouponRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Coupon, int64, error) {
	q := r.db.WithContext(ctx).Model(&CouponModel{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count coupons")
	}

	var models []*CouponModel
	if err := q.Order("id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list coupons")
	}
	coupons := make([]*domain.Coupon, len(models))
	for i, m := range models {
		coupons[i] = toDomainCoupon(m)
	}
	return coupons, total, nil
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	model := fromDomainCoupon(coupon)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return domain.ErrCouponCodeTaken
		}
		return errors.Wrap(err, "create coupon")
	}
	coupon.ID = model.ID
	coupon.CreatedAt = model.CreatedAt
	coupon.UpdatedAt = model.UpdatedAt
	return nil
}

// Update 整体保存优惠券，包括清空的可选字段
func (r *GormCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	model := fromDomainCoupon(coupon)
	res := r.db.WithContext(ctx).Select("*").Omit("created_at").Where("id = ?", coupon.ID).Updates(model)
	if res.Error != nil {
		if database.IsDuplicateKey(res.Error) {
			return domain.ErrCouponCodeTaken
		}
		return errors.Wrap(res.Error, "update coupon")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponNotFound
	}
	coupon.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormCouponRepository) CountRedemptions(ctx context.Context, couponID int64, customerID string) (domain.UsageCounts, error) {
	return countRedemptions(r.db.WithContext(ctx), couponID, customerID)
}

// Redeem 锁定优惠券行 (SELECT ... FOR UPDATE)，同一优惠券的并发核销在此串行化
func (r *GormCouponRepository) Redeem(ctx context.Context, code, customerID string, decide domain.RedeemDecision) (*domain.Redemption, error) {
	var out *domain.Redemption
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CouponModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCouponNotFound
			}
			return errors.Wrapf(err, "lock coupon %s", code)
		}

		counts, err := countRedemptions(tx, model.ID, customerID)
		if err != nil {
			return err
		}

		redemption, err := decide(toDomainCoupon(&model), counts)
		if err != nil {
			return err
		}

		rm := fromDomainRedemption(redemption)
		if err := tx.Create(rm).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return domain.ErrDuplicateRedemption
			}
			return errors.Wrap(err, "insert redemption")
		}
		redemption.ID = rm.ID
		out = redemption
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormCouponRepository) Release(ctx context.Context, orderID string, at time.Time) (*domain.Redemption, error) {
	var out *domain.Redemption
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RedemptionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ? AND released_at IS NULL", orderID).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRedemptionNotFound
			}
			return errors.Wrapf(err, "find redemption for order %s", orderID)
		}
		if err := tx.Model(&model).Update("released_at", at).Error; err != nil {
			return errors.Wrap(err, "release redemption")
		}
		model.ReleasedAt.Time, model.ReleasedAt.Valid = at, true
		out = toDomainRedemption(&model)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func countRedemptions(db *gorm.DB, couponID int64, customerID string) (domain.UsageCounts, error) {
	var row struct {
		Total    int64
		Customer int64
	}
	err := db.Model(&RedemptionModel{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN customer_id = ? THEN 1 ELSE 0 END), 0) AS customer", customerID).
		Where("coupon_id = ? AND released_at IS NULL", couponID).
		Scan(&row).Error
	if err != nil {
		return domain.UsageCounts{}, errors.Wrap(err, "count redemptions")
	}
	return domain.UsageCounts{Total: row.Total, Customer: row.Customer}, nil
}
