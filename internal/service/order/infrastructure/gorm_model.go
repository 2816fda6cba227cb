package infrastructure

import (
	"database/sql"
	"time"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID             string         `gorm:"type:varchar(36);primaryKey"`
	OrderNumber    string         `gorm:"type:varchar(32);uniqueIndex"`
	CustomerID     string         `gorm:"type:varchar(64);index:idx_customer_created"`
	Status         string         `gorm:"type:varchar(16);index"`
	PaymentStatus  string         `gorm:"type:varchar(16)"`
	Subtotal       float64        `gorm:"type:decimal(12,2)"`
	DiscountAmount float64        `gorm:"type:decimal(12,2)"`
	ShippingFee    float64        `gorm:"type:decimal(12,2)"`
	Total          float64        `gorm:"type:decimal(12,2)"`
	CouponCode     sql.NullString `gorm:"type:varchar(64)"`
	CancelReason   sql.NullString `gorm:"type:varchar(2000)"`
	PaidAt         *time.Time
	ProcessingAt   *time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	RefundedAt     *time.Time
	CreatedAt      time.Time `gorm:"index:idx_customer_created"`
	UpdatedAt      time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表
type OrderItemModel struct {
	ID          int64   `gorm:"primaryKey"`
	OrderID     string  `gorm:"type:varchar(36);index"`
	ProductID   string  `gorm:"type:varchar(64)"`
	ProductName string  `gorm:"type:varchar(255)"`
	UnitPrice   float64 `gorm:"type:decimal(12,2)"`
	Quantity    int
	LineTotal   float64 `gorm:"type:decimal(12,2)"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// Models 返回需要自动迁移的表模型。
func Models() []any {
	return []any{&OrderModel{}, &OrderItemModel{}}
}
