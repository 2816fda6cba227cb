// internal/service/promotion/application/service.go
package application

import (
	"context"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"teahouse/internal/pkg/auth"
	"teahouse/internal/pkg/logger"
	"teahouse/internal/pkg/metrics"
	"teahouse/internal/service/promotion/domain"
)

// PromotionService 定义了优惠服务提供的所有业务用例
type PromotionService struct {
	couponRepo domain.CouponRepository
	categories domain.CategoryResolver
	tracer     trace.Tracer
	now        func() time.Time
}

type Option func(*PromotionService)

// WithClock 替换当前时间来源，主要用于测试。
func WithClock(now func() time.Time) Option {
	return func(s *PromotionService) { s.now = now }
}

// NewPromotionService 创建一个新的优惠服务实例
func NewPromotionService(repo domain.CouponRepository, categories domain.CategoryResolver, tracer trace.Tracer, opts ...Option) *PromotionService {
	s := &PromotionService{
		couponRepo: repo,
		categories: categories,
		tracer:     tracer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateCoupon 判断优惠券能否用于给定订单并计算优惠金额。
// 业务拒绝通过 Valid=false 返回，只有基础设施故障才返回 error。
func (s *PromotionService) ValidateCoupon(ctx context.Context, req *ValidateCouponRequest) (*ValidateCouponResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.ValidateCoupon")
	defer span.End()

	code := domain.NormalizeCode(req.Code)
	span.SetAttributes(
		attribute.String("coupon.code", code),
		attribute.String("customer.id", req.CustomerID),
		attribute.Float64("order.subtotal", req.Subtotal),
	)

	if rej := checkRequest(req); rej != nil {
		return s.reject(ctx, span, code, rej), nil
	}

	// 1. 按规范化后的兑换码查找
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err == nil {
		// 2-8. 依次校验并计算优惠
		var discount float64
		discount, err = s.evaluate(ctx, coupon, req, func() (domain.UsageCounts, error) {
			return s.couponRepo.CountRedemptions(ctx, coupon.ID, req.CustomerID)
		})
		if err == nil {
			return s.approve(ctx, span, coupon, discount), nil
		}
	}

	if rej, ok := domain.AsRejection(err); ok {
		return s.reject(ctx, span, code, rej), nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "coupon validation failed")
	return nil, err
}

// RedeemCoupon 在一个存储事务内重新执行全部校验并写入核销记录，
// 避免校验与计数之间出现并发超发。
func (s *PromotionService) RedeemCoupon(ctx context.Context, req *RedeemCouponRequest) (*RedeemCouponResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.RedeemCoupon")
	defer span.End()

	code := domain.NormalizeCode(req.Code)
	span.SetAttributes(
		attribute.String("coupon.code", code),
		attribute.String("customer.id", req.CustomerID),
		attribute.String("order.id", req.OrderID),
	)

	rej := checkRequest(&req.ValidateCouponRequest)
	if rej == nil && strings.TrimSpace(req.OrderID) == "" {
		rej = domain.InvalidRequest("order id is required")
	}
	if rej != nil {
		return &RedeemCouponResponse{ValidateCouponResponse: *s.reject(ctx, span, code, rej)}, nil
	}

	var (
		coupon   *domain.Coupon
		discount float64
	)
	redemption, err := s.couponRepo.Redeem(ctx, code, req.CustomerID, func(c *domain.Coupon, counts domain.UsageCounts) (*domain.Redemption, error) {
		d, err := s.evaluate(ctx, c, &req.ValidateCouponRequest, func() (domain.UsageCounts, error) {
			return counts, nil
		})
		if err != nil {
			return nil, err
		}
		coupon, discount = c, d
		return &domain.Redemption{
			CouponID:       c.ID,
			CouponCode:     c.Code,
			CustomerID:     req.CustomerID,
			OrderID:        req.OrderID,
			DiscountAmount: d,
			RedeemedAt:     s.now(),
		}, nil
	})
	if err != nil {
		if rej, ok := domain.AsRejection(err); ok {
			return &RedeemCouponResponse{ValidateCouponResponse: *s.reject(ctx, span, code, rej)}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "coupon redemption failed")
		return nil, err
	}

	metrics.CouponRedemptions.WithLabelValues("redeemed").Inc()
	logger.Ctx(ctx).Info().
		Str("coupon_code", code).
		Str("order_id", req.OrderID).
		Float64("discount", discount).
		Msg("coupon redeemed")

	return &RedeemCouponResponse{
		ValidateCouponResponse: *s.approve(ctx, span, coupon, discount),
		RedemptionID:           redemption.ID,
	}, nil
}

// ReleaseRedemption 是 RedeemCoupon 的补偿操作，订单创建失败时释放核销次数。
func (s *PromotionService) ReleaseRedemption(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "service.ReleaseRedemption (Compensation)")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	redemption, err := s.couponRepo.Release(ctx, orderID, s.now())
	if err != nil {
		span.RecordError(err)
		return err
	}

	metrics.CouponRedemptions.WithLabelValues("released").Inc()
	logger.Ctx(ctx).Info().
		Str("coupon_code", redemption.CouponCode).
		Str("order_id", orderID).
		Msg("Compensation: coupon redemption released")
	span.AddEvent("Coupon redemption released")
	return nil
}

// evaluate 执行校验的第 2-8 步，counts 只在前面的检查都通过后才被调用。
func (s *PromotionService) evaluate(ctx context.Context, c *domain.Coupon, req *ValidateCouponRequest, counts func() (domain.UsageCounts, error)) (float64, error) {
	if err := c.CheckActive(); err != nil {
		return 0, err
	}
	if err := c.CheckWindow(s.now()); err != nil {
		return 0, err
	}
	if err := c.CheckMinimum(req.Subtotal); err != nil {
		return 0, err
	}

	if c.Restricted() {
		var categoryIDs []string
		if c.NeedsCategories() && len(req.ProductIDs) > 0 {
			var err error
			if categoryIDs, err = s.categories.CategoriesOf(ctx, req.ProductIDs); err != nil {
				return 0, err
			}
		}
		if !c.AppliesTo(req.ProductIDs, categoryIDs) {
			return 0, domain.ErrCouponNotApplicable
		}
	}

	usage, err := counts()
	if err != nil {
		return 0, err
	}
	if err := c.CheckUsage(usage); err != nil {
		return 0, err
	}

	return c.ComputeDiscount(req.Subtotal), nil
}

func checkRequest(req *ValidateCouponRequest) *domain.RejectionError {
	switch {
	case domain.NormalizeCode(req.Code) == "":
		return domain.InvalidRequest("coupon code is required")
	case strings.TrimSpace(req.CustomerID) == "":
		return domain.InvalidRequest("customer id is required")
	case req.Subtotal < 0 || math.IsNaN(req.Subtotal) || math.IsInf(req.Subtotal, 0):
		return domain.InvalidRequest("subtotal must be a non-negative amount")
	}
	return nil
}

func (s *PromotionService) approve(ctx context.Context, span trace.Span, c *domain.Coupon, discount float64) *ValidateCouponResponse {
	metrics.CouponValidations.WithLabelValues("applied").Inc()
	span.SetAttributes(attribute.Float64("coupon.discount", discount))
	span.AddEvent("Coupon applicable")
	logger.Ctx(ctx).Debug().Str("coupon_code", c.Code).Float64("discount", discount).Msg("coupon applicable")

	return &ValidateCouponResponse{
		Valid:          true,
		CouponCode:     c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: discount,
		Description:    c.Describe(),
	}
}

func (s *PromotionService) reject(ctx context.Context, span trace.Span, code string, rej *domain.RejectionError) *ValidateCouponResponse {
	metrics.CouponValidations.WithLabelValues(string(rej.Code)).Inc()
	span.SetAttributes(attribute.String("coupon.rejection", string(rej.Code)))
	logger.Ctx(ctx).Info().Str("coupon_code", code).Str("reason", string(rej.Code)).Msg("coupon rejected")

	return &ValidateCouponResponse{
		Valid: false,
		Code:  rej.Code,
		Error: rej.Message,
	}
}

// CreateCoupon 由管理员创建优惠券。
func (s *PromotionService) CreateCoupon(ctx context.Context, actor auth.Actor, in *CouponInput) (*CouponView, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateCoupon")
	defer span.End()

	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}

	coupon := &domain.Coupon{}
	in.apply(coupon)
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("coupon_code", coupon.Code).Str("admin_id", actor.UserID).Msg("coupon created")
	return toView(coupon), nil
}

// UpdateCoupon 由管理员整体替换优惠券的规则。
func (s *PromotionService) UpdateCoupon(ctx context.Context, actor auth.Actor, id int64, in *CouponInput) (*CouponView, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateCoupon")
	defer span.End()

	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(coupon)
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("coupon_code", coupon.Code).Str("admin_id", actor.UserID).Msg("coupon updated")
	return toView(coupon), nil
}

// DeactivateCoupon 停用优惠券，已有核销记录不受影响。
func (s *PromotionService) DeactivateCoupon(ctx context.Context, actor auth.Actor, id int64) (*CouponView, error) {
	ctx, span := s.tracer.Start(ctx, "service.DeactivateCoupon")
	defer span.End()

	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon.IsActive {
		coupon.IsActive = false
		if err := s.couponRepo.Update(ctx, coupon); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	return toView(coupon), nil
}

// GetCoupon 返回单个优惠券的后台视图。
func (s *PromotionService) GetCoupon(ctx context.Context, actor auth.Actor, id int64) (*CouponView, error) {
	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toView(coupon), nil
}

// ListCoupons 分页列出优惠券。
func (s *PromotionService) ListCoupons(ctx context.Context, actor auth.Actor, filter domain.ListFilter) (*CouponList, error) {
	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	coupons, total, err := s.couponRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	list := &CouponList{Items: make([]*CouponView, 0, len(coupons)), Total: total}
	for _, c := range coupons {
		list.Items = append(list.Items, toView(c))
	}
	return list, nil
}
