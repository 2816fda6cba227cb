// internal/service/order/domain/order.go
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// OrderItem 是订单中的一行商品，价格在下单时定格
type OrderItem struct {
	ProductID   string
	ProductName string
	UnitPrice   float64
	Quantity    int
	LineTotal   float64
}

// Order 是订单聚合的根实体
type Order struct {
	ID             string
	OrderNumber    string
	CustomerID     string
	Status         Status
	PaymentStatus  PaymentStatus
	Subtotal       float64
	DiscountAmount float64
	ShippingFee    float64
	Total          float64
	CouponCode     string
	CancelReason   string
	Items          []OrderItem

	PaidAt       *time.Time
	ProcessingAt *time.Time
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	RefundedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 用于创建一个新的待支付订单实例
func NewOrder(id, number, customerID string, items []OrderItem, at time.Time) (*Order, error) {
	if id == "" || customerID == "" {
		return nil, fmt.Errorf("cannot create order with empty required fields")
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	o := &Order{
		ID:            id,
		OrderNumber:   number,
		CustomerID:    customerID,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Items:         items,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	for i := range o.Items {
		it := &o.Items[i]
		if !ValidQuantity(it.Quantity) {
			return nil, ErrInvalidQuantity
		}
		it.LineTotal = roundCents(it.UnitPrice * float64(it.Quantity))
		o.Subtotal += it.LineTotal
	}
	o.Subtotal = roundCents(o.Subtotal)
	o.recalculate()
	return o, nil
}

// ApplyDiscount 记录优惠结果。免运费券把运费置零。
func (o *Order) ApplyDiscount(code string, amount float64, freeShipping bool) {
	o.CouponCode = code
	o.DiscountAmount = roundCents(amount)
	if freeShipping {
		o.ShippingFee = 0
	}
	o.recalculate()
}

// SetShippingFee 设置运费并重新计算总价。
func (o *Order) SetShippingFee(fee float64) {
	o.ShippingFee = roundCents(fee)
	o.recalculate()
}

func (o *Order) recalculate() {
	total := o.Subtotal - o.DiscountAmount + o.ShippingFee
	if total < 0 {
		total = 0
	}
	o.Total = roundCents(total)
}

// MaxReasonLength 是取消原因的字符上限，配置只能调低不能调高
const MaxReasonLength = 500

// NormalizeReason 去掉首尾空白并检查长度，长度按字符计算。
// limit 不在 1..MaxReasonLength 内时按 MaxReasonLength 处理。
func NormalizeReason(reason string, limit int) (string, error) {
	if limit <= 0 || limit > MaxReasonLength {
		limit = MaxReasonLength
	}
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n == 0 || n > limit {
		return "", ErrInvalidReason
	}
	return reason, nil
}

// Cancel 取消订单，只允许在 pending 和 paid 状态下进行。
// 除状态、原因和取消时间外不修改任何字段。
func (o *Order) Cancel(reason string, at time.Time) error {
	if !o.Status.Cancellable() {
		return ErrCannotCancel
	}
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &at
	o.UpdatedAt = at
	return nil
}

// Advance 沿正向流程前进一步，并写入对应的时间戳。
func (o *Order) Advance(target Status, at time.Time) error {
	next, ok := o.Status.Next()
	if !ok || next != target {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = at
	switch target {
	case StatusPaid:
		o.PaidAt = &at
		o.PaymentStatus = PaymentPaid
	case StatusProcessing:
		o.ProcessingAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	}
	return nil
}

// Refund 从任意非终态转为退款。
func (o *Order) Refund(at time.Time) error {
	if o.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusRefunded)
	}
	o.Status = StatusRefunded
	o.RefundedAt = &at
	o.UpdatedAt = at
	return nil
}

// MarkPaymentFailed 记录支付失败，订单状态保持不变。
func (o *Order) MarkPaymentFailed(at time.Time) {
	o.PaymentStatus = PaymentFailed
	o.UpdatedAt = at
}

// OwnedBy 报告订单是否属于该顾客。
func (o *Order) OwnedBy(customerID string) bool {
	return customerID != "" && o.CustomerID == customerID
}

// MaxItemQuantity 是单行商品允许的最大数量
const MaxItemQuantity = 999

// ValidQuantity 报告单行数量是否在 1..MaxItemQuantity 之间。
func ValidQuantity(q int) bool {
	return q > 0 && q <= MaxItemQuantity
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
