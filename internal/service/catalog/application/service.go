package application

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"teahouse/internal/service/catalog/domain"
)

// ProductView 是商品对外展示的结构
type ProductView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	CategoryID  string  `json:"category_id"`
	Price       float64 `json:"price"`
}

type ProductList struct {
	Items []*ProductView `json:"items"`
	Total int64          `json:"total"`
}

// CatalogService 提供商品查询，以及下单定价和优惠券分类判断所需的查询
type CatalogService struct {
	repo   domain.ProductRepository
	tracer trace.Tracer
}

func NewCatalogService(repo domain.ProductRepository, tracer trace.Tracer) *CatalogService {
	return &CatalogService{repo: repo, tracer: tracer}
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID string, limit, offset int) (*ProductList, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListProducts")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", categoryID))

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	products, total, err := s.repo.List(ctx, categoryID, limit, max(offset, 0))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	list := &ProductList{Items: make([]*ProductView, 0, len(products)), Total: total}
	for _, p := range products {
		list.Items = append(list.Items, toView(p))
	}
	return list, nil
}

// GetProduct 返回上架中的商品，下架商品按不存在处理。
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetProduct")
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.ErrProductNotFound
	}
	return toView(p), nil
}

// PriceItems 返回商品的当前价格与上架状态，按 ID 索引。
func (s *CatalogService) PriceItems(ctx context.Context, productIDs []string) (map[string]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "service.PriceItems")
	defer span.End()
	span.SetAttributes(attribute.Int("product.count", len(productIDs)))

	products, err := s.repo.FindByIDs(ctx, dedupe(productIDs))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// CategoriesOf 返回商品所属分类的去重列表。
func (s *CatalogService) CategoriesOf(ctx context.Context, productIDs []string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "service.CategoriesOf")
	defer span.End()

	products, err := s.repo.FindByIDs(ctx, dedupe(productIDs))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	cats := make([]string, 0, len(products))
	for _, p := range products {
		if p.CategoryID != "" {
			cats = append(cats, p.CategoryID)
		}
	}
	slices.Sort(cats)
	return slices.Compact(cats), nil
}

func toView(p *domain.Product) *ProductView {
	return &ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
	}
}

func dedupe(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
