package domain

import (
	"errors"
	"fmt"
)

// RejectionCode 是业务拒绝原因的机器可读编码。
type RejectionCode string

const (
	CodeInvalidRequest      RejectionCode = "invalid_request"
	CodeNotFound            RejectionCode = "coupon_not_found"
	CodeInactive            RejectionCode = "coupon_inactive"
	CodeNotYetValid         RejectionCode = "coupon_not_yet_valid"
	CodeExpired             RejectionCode = "coupon_expired"
	CodeBelowMinimum        RejectionCode = "below_minimum_order_amount"
	CodeNotApplicable       RejectionCode = "coupon_not_applicable"
	CodeUsageLimitReached   RejectionCode = "usage_limit_reached"
	CodePerUserLimitReached RejectionCode = "per_user_limit_reached"
)

// RejectionError 表示优惠券校验未通过。它是预期中的业务结果，不是故障。
type RejectionError struct {
	Code    RejectionCode
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

// Is 按编码比较，使带有动态信息的拒绝也能匹配哨兵错误。
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	return ok && t.Code == e.Code
}

var (
	ErrCouponNotFound      = &RejectionError{Code: CodeNotFound, Message: "coupon does not exist"}
	ErrCouponInactive      = &RejectionError{Code: CodeInactive, Message: "coupon is inactive"}
	ErrCouponNotYetValid   = &RejectionError{Code: CodeNotYetValid, Message: "coupon is not yet valid"}
	ErrCouponExpired       = &RejectionError{Code: CodeExpired, Message: "coupon has expired"}
	ErrBelowMinimum        = &RejectionError{Code: CodeBelowMinimum, Message: "order is below the minimum order amount"}
	ErrCouponNotApplicable = &RejectionError{Code: CodeNotApplicable, Message: "coupon is not applicable to these items"}
	ErrUsageLimitReached   = &RejectionError{Code: CodeUsageLimitReached, Message: "coupon usage limit reached"}
	ErrPerUserLimitReached = &RejectionError{Code: CodePerUserLimitReached, Message: "coupon usage limit reached for this customer"}
)

// BelowMinimum 生成带差额的最低消费拒绝。
func BelowMinimum(minAmount, shortfall float64) *RejectionError {
	return &RejectionError{
		Code:    CodeBelowMinimum,
		Message: fmt.Sprintf("order is below the minimum order amount of %.2f, add %.2f more", minAmount, shortfall),
	}
}

// InvalidRequest 生成输入格式错误的拒绝。
func InvalidRequest(msg string) *RejectionError {
	return &RejectionError{Code: CodeInvalidRequest, Message: msg}
}

// AsRejection 从错误链中取出业务拒绝。
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

var (
	ErrInvalidCoupon       = errors.New("invalid coupon")
	ErrCouponCodeTaken     = errors.New("coupon code already exists")
	ErrRedemptionNotFound  = errors.New("redemption not found")
	ErrDuplicateRedemption = errors.New("coupon already redeemed for this order")
)
