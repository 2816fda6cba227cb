package adapter

import (
	"context"

	catalog "teahouse/internal/service/catalog/application"
	"teahouse/internal/service/order/domain/port"
)

// CatalogAdapter 在进程内调用商品目录服务，实现 port.CatalogService。
type CatalogAdapter struct {
	svc *catalog.CatalogService
}

func NewCatalogAdapter(svc *catalog.CatalogService) *CatalogAdapter {
	return &CatalogAdapter{svc: svc}
}

func (a *CatalogAdapter) PriceItems(ctx context.Context, productIDs []string) (map[string]port.PricedProduct, error) {
	products, err := a.svc.PriceItems(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]port.PricedProduct, len(products))
	for id, p := range products {
		out[id] = port.PricedProduct{ID: p.ID, Name: p.Name, Price: p.Price, Active: p.IsActive}
	}
	return out, nil
}
