package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"teahouse/internal/service/catalog/domain"
)

// ProductModel 对应数据库中的 products 表
type ProductModel struct {
	ID          string  `gorm:"type:varchar(64);primaryKey"`
	Name        string  `gorm:"type:varchar(255)"`
	Slug        string  `gorm:"type:varchar(255);uniqueIndex"`
	Description string  `gorm:"type:text"`
	CategoryID  string  `gorm:"type:varchar(64);index"`
	Price       float64 `gorm:"type:decimal(12,2)"`
	IsActive    bool    `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

// Models 返回需要自动迁移的表模型。
func Models() []any {
	return []any{&ProductModel{}}
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) List(ctx context.Context, categoryID string, limit, offset int) ([]*domain.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&ProductModel{}).Where("is_active = ?", true)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}
	var models []*ProductModel
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	return toDomain(models), total, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "find product %s", id)
	}
	return toDomain([]*ProductModel{&model})[0], nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []*ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	return toDomain(models), nil
}

func toDomain(models []*ProductModel) []*domain.Product {
	out := make([]*domain.Product, len(models))
	for i, m := range models {
		out[i] = &domain.Product{
			ID:          m.ID,
			Name:        m.Name,
			Slug:        m.Slug,
			Description: m.Description,
			CategoryID:  m.CategoryID,
			Price:       m.Price,
			IsActive:    m.IsActive,
			CreatedAt:   m.CreatedAt,
		}
	}
	return out
}
