// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"teahouse/internal/pkg/auth"
	"teahouse/internal/pkg/logger"
	"teahouse/internal/pkg/metrics"
	"teahouse/internal/service/order/application/saga"
	"teahouse/internal/service/order/domain"
	"teahouse/internal/service/order/domain/port"
)

// Settings 是订单服务的业务参数
type Settings struct {
	Currency          string
	ShippingFee       float64
	CancelReasonLimit int
}

// OrderApplicationService 负责订单生命周期的业务流程编排。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	tracer    trace.Tracer
	settings  Settings
	now       func() time.Time

	catalog  port.CatalogService
	coupons  port.CouponService
	events   port.EventPublisher
	payments port.PaymentGateway
}

type Option func(*OrderApplicationService)

func WithClock(now func() time.Time) Option {
	return func(s *OrderApplicationService) { s.now = now }
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, tracer trace.Tracer, settings Settings, catalog port.CatalogService, coupons port.CouponService, events port.EventPublisher, payments port.PaymentGateway, opts ...Option) *OrderApplicationService {
	if settings.CancelReasonLimit <= 0 || settings.CancelReasonLimit > domain.MaxReasonLength {
		settings.CancelReasonLimit = domain.MaxReasonLength
	}
	s := &OrderApplicationService{
		orderRepo: orderRepo, tracer: tracer, settings: settings, now: time.Now,
		catalog: catalog, coupons: coupons, events: events, payments: payments,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder 定价、核销优惠券并创建待支付订单。任何一步失败都会执行已登记的补偿。
func (s *OrderApplicationService) PlaceOrder(ctx context.Context, actor auth.Actor, req *PlaceOrderRequest) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()

	if err := auth.RequireRole(actor, auth.RoleCustomer); err != nil {
		return nil, err
	}
	req.CustomerID = actor.UserID

	now := s.now().UTC()
	checkout := &saga.Checkout{
		OrderID:     uuid.NewString(),
		OrderNumber: newOrderNumber(now),
		CustomerID:  req.CustomerID,
		CouponCode:  strings.TrimSpace(req.CouponCode),
		ShippingFee: s.settings.ShippingFee,
		At:          now,
	}
	for _, it := range req.Items {
		checkout.Lines = append(checkout.Lines, saga.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	span.SetAttributes(
		attribute.String("order.id", checkout.OrderID),
		attribute.String("customer.id", checkout.CustomerID),
	)

	orderCtx := &saga.OrderContext{
		Ctx:      ctx,
		Checkout: checkout,
		Tracer:   s.tracer,
		Catalog:  s.catalog,
		Coupons:  s.coupons,
		Events:   s.events,
	}

	if err := s.buildChain().Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout failed")
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", checkout.OrderID).Msg("checkout failed, SAGA compensation triggered")
		// 请求被取消时补偿仍需完成
		orderCtx.TriggerCompensation(context.WithoutCancel(ctx))
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", checkout.OrderID).
		Str("order_number", checkout.OrderNumber).
		Float64("total", orderCtx.Order.Total).
		Msg("order placed")
	return toView(orderCtx.Order, s.settings.Currency), nil
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	chain := new(saga.PricingHandler)
	chain.
		SetNext(new(saga.CouponHandler)).
		SetNext(saga.NewCreateOrderHandler(s.orderRepo)).
		SetNext(new(saga.NotificationHandler))
	return chain
}

// CancelOrder 是顾客取消订单的入口。他人的订单按不存在处理。
func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID, customerID, reason string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("customer.id", customerID))

	reason, err := domain.NormalizeReason(reason, s.settings.CancelReasonLimit)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(customerID) {
		return nil, domain.ErrOrderNotFound
	}

	from := order.Status
	if err := order.Cancel(reason, s.now().UTC()); err != nil {
		s.recordTransition(from, domain.StatusCancelled, auth.RoleCustomer, "rejected")
		return nil, err
	}
	if err := s.commit(ctx, order, from, auth.RoleCustomer, reason); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return toView(order, s.settings.Currency), nil
}

// TransitionOrder 是后台与系统变更订单状态的入口，不做归属校验。
func (s *OrderApplicationService) TransitionOrder(ctx context.Context, actor auth.Actor, orderID string, req *TransitionRequest) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "app.TransitionOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", string(req.Status)),
		attribute.String("actor.role", string(actor.Role)),
	)

	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, req.Status)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, order, req.Status, req.Reason); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return toView(order, s.settings.Currency), nil
}

func (s *OrderApplicationService) transition(ctx context.Context, actor auth.Actor, order *domain.Order, target domain.Status, reason string) error {
	from := order.Status
	now := s.now().UTC()

	var err error
	switch target {
	case domain.StatusCancelled:
		if reason, err = domain.NormalizeReason(reason, s.settings.CancelReasonLimit); err == nil {
			err = order.Cancel(reason, now)
		}
	case domain.StatusRefunded:
		reason = strings.TrimSpace(reason)
		err = order.Refund(now)
	default:
		err = order.Advance(target, now)
	}
	if err != nil {
		s.recordTransition(from, target, actor.Role, "rejected")
		return err
	}
	return s.commit(ctx, order, from, actor.Role, reason)
}

// commit 以原状态为条件落库，成功后发布状态变更事件。
func (s *OrderApplicationService) commit(ctx context.Context, order *domain.Order, from domain.Status, role auth.Role, reason string) error {
	if err := s.orderRepo.UpdateStatus(ctx, order, from); err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrStatusConflict) {
			outcome = "conflict"
		}
		s.recordTransition(from, order.Status, role, outcome)
		return err
	}
	s.recordTransition(from, order.Status, role, "applied")

	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("from", string(from)).
		Str("to", string(order.Status)).
		Str("role", string(role)).
		Msg("order status changed")

	event := &domain.StatusChanged{
		Type:        domain.EventStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		From:        from,
		To:          order.Status,
		ActorRole:   string(role),
		Reason:      reason,
		At:          order.UpdatedAt,
	}
	if err := s.events.PublishStatusChanged(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("Failed to publish status changed event")
	}
	return nil
}

func (s *OrderApplicationService) recordTransition(from, to domain.Status, role auth.Role, outcome string) {
	metrics.OrderTransitions.WithLabelValues(string(from), string(to), string(role), outcome).Inc()
}

// ConfirmPayment 向支付渠道核实交易后把订单推进到 paid。重复回调是幂等的。
func (s *OrderApplicationService) ConfirmPayment(ctx context.Context, cb *PaymentCallback) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "app.ConfirmPayment")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.number", cb.OrderNumber),
		attribute.String("payment.transaction_id", cb.TransactionID),
	)

	if cb.OrderNumber == "" || cb.TransactionID == "" {
		return nil, fmt.Errorf("%w: order number and transaction id are required", domain.ErrPaymentMismatch)
	}

	result, err := s.payments.VerifyTransaction(ctx, cb.TransactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment verification failed")
		return nil, err
	}
	if result.Reference != cb.OrderNumber {
		return nil, fmt.Errorf("%w: transaction belongs to %q", domain.ErrPaymentMismatch, result.Reference)
	}

	order, err := s.orderRepo.FindByNumber(ctx, cb.OrderNumber)
	if err != nil {
		return nil, err
	}

	switch result.State {
	case port.PaymentSucceeded:
		if order.Status.Reached(domain.StatusPaid) {
			return toView(order, s.settings.Currency), nil
		}
		if result.Amount+0.005 < order.Total {
			return nil, fmt.Errorf("%w: paid %.2f of %.2f", domain.ErrPaymentMismatch, result.Amount, order.Total)
		}
		if err := s.transition(ctx, auth.System(), order, domain.StatusPaid, ""); err != nil {
			return nil, err
		}
	case port.PaymentFailed:
		if order.PaymentStatus != domain.PaymentPending {
			return toView(order, s.settings.Currency), nil
		}
		order.MarkPaymentFailed(s.now().UTC())
		if err := s.orderRepo.UpdatePaymentStatus(ctx, order); err != nil {
			return nil, err
		}
		logger.Ctx(ctx).Warn().Str("order_id", order.ID).Msg("payment failed")
	default:
		return nil, domain.ErrPaymentNotConfirmed
	}
	return toView(order, s.settings.Currency), nil
}

// HandleFulfillmentUpdate 以系统身份应用履约进度，已处理过的进度直接忽略。
func (s *OrderApplicationService) HandleFulfillmentUpdate(ctx context.Context, update *domain.FulfillmentUpdate) error {
	ctx, span := s.tracer.Start(ctx, "app.HandleFulfillmentUpdate", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", update.OrderID),
		attribute.String("order.target_status", string(update.Status)),
	)

	switch update.Status {
	case domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered:
	default:
		return fmt.Errorf("%w: fulfillment cannot set %q", domain.ErrInvalidTransition, update.Status)
	}

	order, err := s.orderRepo.FindByID(ctx, update.OrderID)
	if err != nil {
		return err
	}
	if order.Status.Reached(update.Status) {
		span.AddEvent("Duplicate fulfillment update skipped.")
		return nil
	}
	if err := s.transition(ctx, auth.System(), order, update.Status, ""); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ExpireUnpaidOrders 以系统身份取消创建时间早于 cutoff 仍未支付的订单，返回取消的数量。
// 与支付回调并发时由条件更新裁决，输掉竞争的订单直接跳过。
func (s *OrderApplicationService) ExpireUnpaidOrders(ctx context.Context, cutoff time.Time, batch int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "app.ExpireUnpaidOrders")
	defer span.End()

	orders, err := s.orderRepo.ListPendingBefore(ctx, cutoff, batch)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		err := s.transition(ctx, auth.System(), order, domain.StatusCancelled, expiredReason)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrStatusConflict), errors.Is(err, domain.ErrCannotCancel):
			logger.Ctx(ctx).Debug().Str("order_id", order.ID).Msg("order changed before expiry, skipped")
		default:
			span.RecordError(err)
			return expired, err
		}
	}
	span.SetAttributes(attribute.Int("orders.expired", expired))
	return expired, nil
}

const expiredReason = "payment not received in time"

// GetOrder 返回订单详情。顾客只能看到自己的订单。
func (s *OrderApplicationService) GetOrder(ctx context.Context, actor auth.Actor, orderID string) (*OrderView, error) {
	if err := auth.RequireRole(actor, auth.RoleCustomer); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsPrivileged() && !order.OwnedBy(actor.UserID) {
		return nil, domain.ErrOrderNotFound
	}
	return toView(order, s.settings.Currency), nil
}

// ListOrders 列出当前顾客的订单。
func (s *OrderApplicationService) ListOrders(ctx context.Context, actor auth.Actor, limit, offset int) ([]*OrderView, error) {
	if err := auth.RequireRole(actor, auth.RoleCustomer); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	orders, err := s.orderRepo.ListByCustomer(ctx, actor.UserID, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toView(o, s.settings.Currency))
	}
	return views, nil
}

// newOrderNumber 生成形如 TEA-20260516-1A2B3C4D 的订单号。
func newOrderNumber(at time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("TEA-%s-%s", at.Format("20060102"), strings.ToUpper(id[:8]))
}
