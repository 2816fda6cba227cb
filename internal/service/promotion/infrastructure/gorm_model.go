package infrastructure

import (
	"database/sql"
	"time"
)

// CouponModel 对应数据库中的 coupons 表
type CouponModel struct {
	ID             int64           `gorm:"primaryKey"`
	Code           string          `gorm:"type:varchar(64);uniqueIndex"`
	Description    string          `gorm:"type:varchar(255)"`
	DiscountType   string          `gorm:"type:varchar(32)"`
	DiscountValue  float64         `gorm:"type:decimal(10,2)"`
	MinOrderAmount float64         `gorm:"type:decimal(10,2);default:0"`
	MaxDiscount    sql.NullFloat64 `gorm:"type:decimal(10,2)"`
	UsageLimit     sql.NullInt64
	PerUserLimit   int `gorm:"default:1"`
	StartsAt       sql.NullTime
	ExpiresAt      sql.NullTime
	IsActive       bool     `gorm:"index"`
	ProductIDs     []string `gorm:"serializer:json;type:text"`
	CategoryIDs    []string `gorm:"serializer:json;type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定 GORM 应该使用的表名
func (CouponModel) TableName() string {
	return "coupons"
}

// RedemptionModel 对应数据库中的 coupon_redemptions 表
type RedemptionModel struct {
	ID             int64   `gorm:"primaryKey"`
	CouponID       int64   `gorm:"uniqueIndex:uk_coupon_order;index:idx_coupon_customer"`
	CouponCode     string  `gorm:"type:varchar(64)"`
	CustomerID     string  `gorm:"type:varchar(64);index:idx_coupon_customer"`
	OrderID        string  `gorm:"type:varchar(64);uniqueIndex:uk_coupon_order;index"`
	DiscountAmount float64 `gorm:"type:decimal(10,2)"`
	RedeemedAt     time.Time
	ReleasedAt     sql.NullTime
}

// TableName 指定 GORM 应该使用的表名
func (RedemptionModel) TableName() string {
	return "coupon_redemptions"
}

// Models 返回需要自动迁移的表模型。
func Models() []any {
	return []any{&CouponModel{}, &RedemptionModel{}}
}
