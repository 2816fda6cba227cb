package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"teahouse/internal/pkg/logger"
	"teahouse/internal/service/order/domain"
	"teahouse/internal/service/order/domain/port"
)

// Line 是结账请求中的一行商品
type Line struct {
	ProductID string
	Quantity  int
}

// Checkout 是一次结账的输入
type Checkout struct {
	OrderID     string
	OrderNumber string
	CustomerID  string
	Lines       []Line
	CouponCode  string
	ShippingFee float64
	At          time.Time
}

// OrderContext 在 Saga 流程中传递上下文数据。
type OrderContext struct {
	Ctx      context.Context
	Checkout *Checkout
	Order    *domain.Order // 由定价步骤创建
	Tracer   trace.Tracer

	// 依赖出站端口 (Interfaces)
	Catalog port.CatalogService
	Coupons port.CouponService
	Events  port.EventPublisher

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 登记补偿函数，后登记的先执行。
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("order_id", c.Checkout.OrderID).
		Int("count", len(c.compensations)).
		Msg("Executing compensation functions")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
