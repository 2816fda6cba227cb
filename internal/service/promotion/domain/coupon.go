// internal/service/promotion/domain/coupon.go
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DiscountType 决定优惠金额的计算方式。
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFixedAmount  DiscountType = "fixed_amount"
	DiscountTypeFreeShipping DiscountType = "free_shipping" // 只表示免运费资格，金额由调用方处理
)

func (t DiscountType) Valid() bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeFreeShipping:
		return true
	}
	return false
}

// Coupon 是以兑换码为键的一条优惠规则。
type Coupon struct {
	ID             int64
	Code           string
	Description    string
	DiscountType   DiscountType
	DiscountValue  float64
	MinOrderAmount float64
	MaxDiscount    *float64 // 仅对百分比折扣生效
	UsageLimit     *int     // 总核销上限，nil 表示不限
	PerUserLimit   int      // 每个顾客的核销上限，<= 0 表示不限
	StartsAt       *time.Time
	ExpiresAt      *time.Time
	IsActive       bool

	// 适用范围白名单，均为空表示全场通用
	ProductIDs  []string
	CategoryIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UsageCounts 是从核销历史中统计出的次数。
type UsageCounts struct {
	Total    int64
	Customer int64
}

// NormalizeCode 去掉首尾空白并转成大写，存储和查询都使用该形式。
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate 检查管理端写入的优惠券是否满足基本约束。
func (c *Coupon) Validate() error {
	switch {
	case c.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	case !c.DiscountType.Valid():
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidCoupon, c.DiscountType)
	case c.DiscountValue < 0 || math.IsNaN(c.DiscountValue):
		return fmt.Errorf("%w: discount value must not be negative", ErrInvalidCoupon)
	case c.MinOrderAmount < 0:
		return fmt.Errorf("%w: minimum order amount must not be negative", ErrInvalidCoupon)
	case c.MaxDiscount != nil && *c.MaxDiscount < 0:
		return fmt.Errorf("%w: max discount must not be negative", ErrInvalidCoupon)
	case c.UsageLimit != nil && *c.UsageLimit < 0:
		return fmt.Errorf("%w: usage limit must not be negative", ErrInvalidCoupon)
	case c.StartsAt != nil && c.ExpiresAt != nil && c.ExpiresAt.Before(*c.StartsAt):
		return fmt.Errorf("%w: expiry precedes start", ErrInvalidCoupon)
	}
	return nil
}

// CheckActive 对应校验第 2 步。
func (c *Coupon) CheckActive() error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	return nil
}

// CheckWindow 对应校验第 3、4 步。
func (c *Coupon) CheckWindow(now time.Time) error {
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ErrCouponNotYetValid
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrCouponExpired
	}
	return nil
}

// CheckMinimum 对应校验第 5 步，拒绝信息里带上差额。
func (c *Coupon) CheckMinimum(subtotal float64) error {
	if subtotal < c.MinOrderAmount {
		return BelowMinimum(c.MinOrderAmount, c.MinOrderAmount-subtotal)
	}
	return nil
}

// Restricted 报告优惠券是否配置了商品或分类白名单。
func (c *Coupon) Restricted() bool {
	return len(c.ProductIDs) > 0 || len(c.CategoryIDs) > 0
}

// NeedsCategories 报告判断适用范围时是否需要解析商品分类。
func (c *Coupon) NeedsCategories() bool {
	return len(c.CategoryIDs) > 0
}

// AppliesTo 对应校验第 6 步：订单中任一商品或其分类命中白名单即可。
func (c *Coupon) AppliesTo(productIDs, categoryIDs []string) bool {
	if !c.Restricted() {
		return true
	}
	return intersects(c.ProductIDs, productIDs) || intersects(c.CategoryIDs, categoryIDs)
}

// CheckUsage 对应校验第 7 步。
func (c *Coupon) CheckUsage(counts UsageCounts) error {
	if c.UsageLimit != nil && counts.Total >= int64(*c.UsageLimit) {
		return ErrUsageLimitReached
	}
	if c.PerUserLimit > 0 && counts.Customer >= int64(c.PerUserLimit) {
		return ErrPerUserLimitReached
	}
	return nil
}

// ComputeDiscount 对应校验第 8 步，结果永远落在 [0, subtotal] 内。
func (c *Coupon) ComputeDiscount(subtotal float64) float64 {
	var discount float64
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = subtotal * c.DiscountValue / 100
		if c.MaxDiscount != nil {
			discount = math.Min(discount, *c.MaxDiscount)
		}
	case DiscountTypeFixedAmount:
		discount = c.DiscountValue
	case DiscountTypeFreeShipping:
		return 0
	}
	return math.Max(0, math.Min(discount, subtotal))
}

// Describe 返回面向顾客的优惠说明。
func (c *Coupon) Describe() string {
	if c.Description != "" {
		return c.Description
	}
	switch c.DiscountType {
	case DiscountTypePercentage:
		if c.MaxDiscount != nil {
			return fmt.Sprintf("%s%% off (up to %.2f)", formatNumber(c.DiscountValue), *c.MaxDiscount)
		}
		return fmt.Sprintf("%s%% off", formatNumber(c.DiscountValue))
	case DiscountTypeFixedAmount:
		return fmt.Sprintf("%.2f off", c.DiscountValue)
	case DiscountTypeFreeShipping:
		return "Free shipping"
	}
	return ""
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func intersects(allow, candidates []string) bool {
	if len(allow) == 0 || len(candidates) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(allow))
	for _, id := range allow {
		set[id] = struct{}{}
	}
	for _, id := range candidates {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
