package infrastructure

import (
	"database/sql"
	"time"

	"teahouse/internal/service/promotion/domain"
)

// toDomainCoupon 将数据库模型转换为领域模型
func toDomainCoupon(model *CouponModel) *domain.Coupon {
	if model == nil {
		return nil
	}
	c := &domain.Coupon{
		ID:             model.ID,
		Code:           model.Code,
		Description:    model.Description,
		DiscountType:   domain.DiscountType(model.DiscountType),
		DiscountValue:  model.DiscountValue,
		MinOrderAmount: model.MinOrderAmount,
		PerUserLimit:   model.PerUserLimit,
		StartsAt:       timePtr(model.StartsAt),
		ExpiresAt:      timePtr(model.ExpiresAt),
		IsActive:       model.IsActive,
		ProductIDs:     model.ProductIDs,
		CategoryIDs:    model.CategoryIDs,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
	if model.MaxDiscount.Valid {
		v := model.MaxDiscount.Float64
		c.MaxDiscount = &v
	}
	if model.UsageLimit.Valid {
		v := int(model.UsageLimit.Int64)
		c.UsageLimit = &v
	}
	return c
}

// fromDomainCoupon 将领域模型转换为数据库模型 (用于插入和整体更新)
func fromDomainCoupon(c *domain.Coupon) *CouponModel {
	m := &CouponModel{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   string(c.DiscountType),
		DiscountValue:  c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		PerUserLimit:   c.PerUserLimit,
		StartsAt:       nullTime(c.StartsAt),
		ExpiresAt:      nullTime(c.ExpiresAt),
		IsActive:       c.IsActive,
		ProductIDs:     c.ProductIDs,
		CategoryIDs:    c.CategoryIDs,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.MaxDiscount != nil {
		m.MaxDiscount = sql.NullFloat64{Float64: *c.MaxDiscount, Valid: true}
	}
	if c.UsageLimit != nil {
		m.UsageLimit = sql.NullInt64{Int64: int64(*c.UsageLimit), Valid: true}
	}
	return m
}

func toDomainRedemption(m *RedemptionModel) *domain.Redemption {
	return &domain.Redemption{
		ID:             m.ID,
		CouponID:       m.CouponID,
		CouponCode:     m.CouponCode,
		CustomerID:     m.CustomerID,
		OrderID:        m.OrderID,
		DiscountAmount: m.DiscountAmount,
		RedeemedAt:     m.RedeemedAt,
		ReleasedAt:     timePtr(m.ReleasedAt),
	}
}

func fromDomainRedemption(r *domain.Redemption) *RedemptionModel {
	return &RedemptionModel{
		ID:             r.ID,
		CouponID:       r.CouponID,
		CouponCode:     r.CouponCode,
		CustomerID:     r.CustomerID,
		OrderID:        r.OrderID,
		DiscountAmount: r.DiscountAmount,
		RedeemedAt:     r.RedeemedAt,
		ReleasedAt:     nullTime(r.ReleasedAt),
	}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
