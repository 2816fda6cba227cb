package application

import (
	"time"

	"teahouse/internal/service/promotion/domain"
)

// ValidateCouponRequest 是校验优惠券的输入。
type ValidateCouponRequest struct {
	Code       string   `json:"code"`
	CustomerID string   `json:"customer_id"`
	Subtotal   float64  `json:"subtotal"`
	ProductIDs []string `json:"product_ids"`
}

// ValidateCouponResponse 是校验结果。Valid 为 false 时只有 Code 与 Error 有意义。
type ValidateCouponResponse struct {
	Valid          bool                 `json:"valid"`
	Code           domain.RejectionCode `json:"code,omitempty"`
	Error          string               `json:"error,omitempty"`
	CouponCode     string               `json:"coupon_code,omitempty"`
	DiscountType   domain.DiscountType  `json:"discount_type,omitempty"`
	DiscountValue  float64              `json:"discount_value,omitempty"`
	DiscountAmount float64              `json:"discount_amount"`
	Description    string               `json:"description,omitempty"`
}

// RedeemCouponRequest 是结账时核销优惠券的输入。
type RedeemCouponRequest struct {
	ValidateCouponRequest
	OrderID string `json:"order_id"`
}

// RedeemCouponResponse 在校验结果之外带上核销记录编号。
type RedeemCouponResponse struct {
	ValidateCouponResponse
	RedemptionID int64 `json:"redemption_id,omitempty"`
}

// CouponInput 是后台创建或修改优惠券的请求体。
type CouponInput struct {
	Code           string     `json:"code"`
	Description    string     `json:"description"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  float64    `json:"discount_value"`
	MinOrderAmount float64    `json:"min_order_amount"`
	MaxDiscount    *float64   `json:"max_discount"`
	UsageLimit     *int       `json:"usage_limit"`
	PerUserLimit   *int       `json:"per_user_limit"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       *bool      `json:"is_active"`
	ProductIDs     []string   `json:"product_ids"`
	CategoryIDs    []string   `json:"category_ids"`
}

// defaultPerUserLimit 是未指定时每个顾客的核销上限。
const defaultPerUserLimit = 1

func (in *CouponInput) apply(c *domain.Coupon) {
	c.Code = domain.NormalizeCode(in.Code)
	c.Description = in.Description
	c.DiscountType = domain.DiscountType(in.DiscountType)
	c.DiscountValue = in.DiscountValue
	c.MinOrderAmount = in.MinOrderAmount
	c.MaxDiscount = in.MaxDiscount
	c.UsageLimit = in.UsageLimit
	c.PerUserLimit = defaultPerUserLimit
	if in.PerUserLimit != nil {
		c.PerUserLimit = *in.PerUserLimit
	}
	c.StartsAt = in.StartsAt
	c.ExpiresAt = in.ExpiresAt
	c.IsActive = true
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.ProductIDs = in.ProductIDs
	c.CategoryIDs = in.CategoryIDs
}

// CouponView 是优惠券对外展示的结构。
type CouponView struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	Description    string     `json:"description"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  float64    `json:"discount_value"`
	MinOrderAmount float64    `json:"min_order_amount"`
	MaxDiscount    *float64   `json:"max_discount,omitempty"`
	UsageLimit     *int       `json:"usage_limit,omitempty"`
	PerUserLimit   int        `json:"per_user_limit"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	ProductIDs     []string   `json:"product_ids,omitempty"`
	CategoryIDs    []string   `json:"category_ids,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toView(c *domain.Coupon) *CouponView {
	return &CouponView{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   string(c.DiscountType),
		DiscountValue:  c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		MaxDiscount:    c.MaxDiscount,
		UsageLimit:     c.UsageLimit,
		PerUserLimit:   c.PerUserLimit,
		StartsAt:       c.StartsAt,
		ExpiresAt:      c.ExpiresAt,
		IsActive:       c.IsActive,
		ProductIDs:     c.ProductIDs,
		CategoryIDs:    c.CategoryIDs,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// CouponList 是分页列表结果。
type CouponList struct {
	Items []*CouponView `json:"items"`
	Total int64         `json:"total"`
}
