package infrastructure

import (
	"database/sql"

	"teahouse/internal/service/order/domain"
)

func toDomainOrder(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID:             m.ID,
		OrderNumber:    m.OrderNumber,
		CustomerID:     m.CustomerID,
		Status:         domain.Status(m.Status),
		PaymentStatus:  domain.PaymentStatus(m.PaymentStatus),
		Subtotal:       m.Subtotal,
		DiscountAmount: m.DiscountAmount,
		ShippingFee:    m.ShippingFee,
		Total:          m.Total,
		CouponCode:     m.CouponCode.String,
		CancelReason:   m.CancelReason.String,
		PaidAt:         m.PaidAt,
		ProcessingAt:   m.ProcessingAt,
		ShippedAt:      m.ShippedAt,
		DeliveredAt:    m.DeliveredAt,
		CancelledAt:    m.CancelledAt,
		RefundedAt:     m.RefundedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Items:          make([]domain.OrderItem, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return o
}

func fromDomainOrder(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		ShippingFee:    o.ShippingFee,
		Total:          o.Total,
		CouponCode:     nullString(o.CouponCode),
		CancelReason:   nullString(o.CancelReason),
		PaidAt:         o.PaidAt,
		ProcessingAt:   o.ProcessingAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		RefundedAt:     o.RefundedAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return m
}

// statusColumns 是一次状态流转可能修改的全部列
func statusColumns(o *domain.Order) map[string]any {
	return map[string]any{
		"status":         string(o.Status),
		"payment_status": string(o.PaymentStatus),
		"cancel_reason":  nullString(o.CancelReason),
		"paid_at":        o.PaidAt,
		"processing_at":  o.ProcessingAt,
		"shipped_at":     o.ShippedAt,
		"delivered_at":   o.DeliveredAt,
		"cancelled_at":   o.CancelledAt,
		"refunded_at":    o.RefundedAt,
		"updated_at":     o.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
