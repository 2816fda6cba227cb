package application

import (
	"context"
	"sync"
	"time"

	"teahouse/internal/service/promotion/domain"
)

// memCouponRepo 是内存版仓储，Redeem 用互斥锁模拟行锁。
type memCouponRepo struct {
	mu          sync.Mutex
	nextID      int64
	coupons     map[int64]*domain.Coupon
	redemptions []*domain.Redemption
	countErr    error
}

func newMemCouponRepo(coupons ...*domain.Coupon) *memCouponRepo {
	r := &memCouponRepo{coupons: make(map[int64]*domain.Coupon)}
	for _, c := range coupons {
		r.nextID++
		c.ID = r.nextID
		r.coupons[c.ID] = c
	}
	return r
}

func (r *memCouponRepo) byCode(code string) (*domain.Coupon, error) {
	for _, c := range r.coupons {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCouponNotFound
}

func (r *memCouponRepo) FindByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCode(code)
}

func (r *memCouponRepo) FindByID(_ context.Context, id int64) (*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCouponRepo) List(_ context.Context, filter domain.ListFilter) ([]*domain.Coupon, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Coupon
	for id := int64(1); id <= r.nextID; id++ {
		c, ok := r.coupons[id]
		if !ok || (filter.ActiveOnly && !c.IsActive) {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *memCouponRepo) Create(_ context.Context, c *domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.byCode(c.Code); err == nil {
		return domain.ErrCouponCodeTaken
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.coupons[c.ID] = &cp
	return nil
}

func (r *memCouponRepo) Update(_ context.Context, c *domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[c.ID]; !ok {
		return domain.ErrCouponNotFound
	}
	cp := *c
	r.coupons[c.ID] = &cp
	return nil
}

func (r *memCouponRepo) counts(couponID int64, customerID string) domain.UsageCounts {
	var counts domain.UsageCounts
	for _, red := range r.redemptions {
		if red.CouponID != couponID || red.ReleasedAt != nil {
			continue
		}
		counts.Total++
		if red.CustomerID == customerID {
			counts.Customer++
		}
	}
	return counts
}

func (r *memCouponRepo) CountRedemptions(_ context.Context, couponID int64, customerID string) (domain.UsageCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return domain.UsageCounts{}, r.countErr
	}
	return r.counts(couponID, customerID), nil
}

func (r *memCouponRepo) Redeem(_ context.Context, code, customerID string, decide domain.RedeemDecision) (*domain.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.byCode(code)
	if err != nil {
		return nil, err
	}
	red, err := decide(c, r.counts(c.ID, customerID))
	if err != nil {
		return nil, err
	}
	for _, existing := range r.redemptions {
		if existing.CouponID == red.CouponID && existing.OrderID == red.OrderID {
			return nil, domain.ErrDuplicateRedemption
		}
	}
	red.ID = int64(len(r.redemptions) + 1)
	r.redemptions = append(r.redemptions, red)
	return red, nil
}

func (r *memCouponRepo) Release(_ context.Context, orderID string, at time.Time) (*domain.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, red := range r.redemptions {
		if red.OrderID == orderID && red.ReleasedAt == nil {
			red.ReleasedAt = &at
			return red, nil
		}
	}
	return nil, domain.ErrRedemptionNotFound
}

type staticCategories map[string]string

func (s staticCategories) CategoriesOf(_ context.Context, productIDs []string) ([]string, error) {
	var out []string
	for _, id := range productIDs {
		if cat, ok := s[id]; ok {
			out = append(out, cat)
		}
	}
	return out, nil
}
