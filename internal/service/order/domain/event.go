// internal/service/order/domain/event.go
package domain

import "time"

const (
	EventOrderPlaced   = "order.placed"
	EventStatusChanged = "order.status_changed"
)

// OrderPlaced 是订单创建成功后发布的事件
type OrderPlaced struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	Total       float64   `json:"total"`
	CouponCode  string    `json:"couponCode,omitempty"`
	PlacedAt    time.Time `json:"placedAt"`
}

// StatusChanged 在每次成功的状态流转后发布
type StatusChanged struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	ActorRole   string    `json:"actorRole"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}

// FulfillmentUpdate 是仓储物流系统推送的履约进度
type FulfillmentUpdate struct {
	OrderID        string    `json:"orderId"`
	Status         Status    `json:"status"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	At             time.Time `json:"at"`
}
