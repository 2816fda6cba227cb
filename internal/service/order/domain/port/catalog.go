package port

import "context"

// PricedProduct 是下单时从商品目录读取的价格快照
type PricedProduct struct {
	ID     string
	Name   string
	Price  float64
	Active bool
}

// CatalogService 是商品目录的出站端口。
type CatalogService interface {
	// PriceItems 返回按商品 ID 索引的价格，不存在的商品不出现在结果中。
	PriceItems(ctx context.Context, productIDs []string) (map[string]PricedProduct, error)
}
