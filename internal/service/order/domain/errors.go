package domain

import "errors"

var (
	ErrOrderNotFound       = errors.New("not found")
	ErrCannotCancel        = errors.New("cannot cancel in current status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStatusConflict      = errors.New("order status changed concurrently")
	ErrInvalidReason       = errors.New("reason must be between 1 and 500 characters")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidQuantity     = errors.New("item quantity must be between 1 and 999")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrCouponRejected      = errors.New("coupon rejected")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrPaymentMismatch     = errors.New("payment does not match order")
)
