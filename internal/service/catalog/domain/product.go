package domain

import (
	"context"
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product 是商品目录中的一件商品，本服务只读。
type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	CategoryID  string
	Price       float64
	IsActive    bool
	CreatedAt   time.Time
}

// ProductRepository 定义了商品的查询接口。
type ProductRepository interface {
	List(ctx context.Context, categoryID string, limit, offset int) ([]*Product, int64, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	// FindByIDs 返回存在的商品，不存在的 ID 被忽略。
	FindByIDs(ctx context.Context, ids []string) ([]*Product, error)
}
