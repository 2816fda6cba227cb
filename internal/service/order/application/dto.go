// internal/service/order/application/dto.go
package application

import (
	"time"

	"teahouse/internal/service/order/domain"
)

// LineRequest 是下单请求中的一行商品
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest 是结账用例的输入数据
type PlaceOrderRequest struct {
	CustomerID string        `json:"-"`
	Items      []LineRequest `json:"items"`
	CouponCode string        `json:"coupon_code,omitempty"`
}

// TransitionRequest 是后台或系统变更订单状态的输入
type TransitionRequest struct {
	Status domain.Status `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// PaymentCallback 是支付渠道回调的请求体
type PaymentCallback struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
}

type OrderItemView struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"line_total"`
}

// OrderView 是订单对外展示的结构
type OrderView struct {
	ID             string               `json:"id"`
	OrderNumber    string               `json:"order_number"`
	CustomerID     string               `json:"customer_id"`
	Status         domain.Status        `json:"status"`
	PaymentStatus  domain.PaymentStatus `json:"payment_status"`
	Subtotal       float64              `json:"subtotal"`
	DiscountAmount float64              `json:"discount_amount"`
	ShippingFee    float64              `json:"shipping_fee"`
	Total          float64              `json:"total"`
	Currency       string               `json:"currency"`
	CouponCode     string               `json:"coupon_code,omitempty"`
	CancelReason   string               `json:"cancel_reason,omitempty"`
	Items          []OrderItemView      `json:"items"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	ProcessingAt   *time.Time           `json:"processing_at,omitempty"`
	ShippedAt      *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

func toView(o *domain.Order, currency string) *OrderView {
	v := &OrderView{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		ShippingFee:    o.ShippingFee,
		Total:          o.Total,
		Currency:       currency,
		CouponCode:     o.CouponCode,
		CancelReason:   o.CancelReason,
		Items:          make([]OrderItemView, 0, len(o.Items)),
		PaidAt:         o.PaidAt,
		ProcessingAt:   o.ProcessingAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		RefundedAt:     o.RefundedAt,
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, OrderItemView(it))
	}
	return v
}
