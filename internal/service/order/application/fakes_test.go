package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"teahouse/internal/service/order/domain"
	"teahouse/internal/service/order/domain/port"
)

type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	createErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*domain.Order)}
}

func clone(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}

func (r *memOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return clone(o), nil
}

func (r *memOrderRepo) FindByNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return clone(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *memOrderRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, clone(o))
		}
	}
	return out, nil
}

// UpdateStatus 与 SQL 实现一样以原状态为条件
func (r *memOrderRepo) UpdateStatus(_ context.Context, o *domain.Order, from domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok || cur.Status != from {
		return domain.ErrStatusConflict
	}
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *memOrderRepo) UpdatePaymentStatus(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok || cur.Status != o.Status {
		return domain.ErrStatusConflict
	}
	cur.PaymentStatus = o.PaymentStatus
	return nil
}

func (r *memOrderRepo) put(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = clone(o)
}

func (r *memOrderRepo) get(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.orders[id])
}

type staticCatalog map[string]port.PricedProduct

func (c staticCatalog) PriceItems(_ context.Context, ids []string) (map[string]port.PricedProduct, error) {
	out := make(map[string]port.PricedProduct)
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeCoupons struct {
	result   port.CouponResult
	err      error
	redeemed []string
	released []string
}

func (f *fakeCoupons) Redeem(_ context.Context, _, _, orderID string, _ float64, _ []string) (port.CouponResult, error) {
	if f.err != nil {
		return port.CouponResult{}, f.err
	}
	if f.result.Applied {
		f.redeemed = append(f.redeemed, orderID)
	}
	return f.result, nil
}

func (f *fakeCoupons) Release(_ context.Context, orderID string) error {
	f.released = append(f.released, orderID)
	return nil
}

type recordingEvents struct {
	mu      sync.Mutex
	placed  []*domain.OrderPlaced
	changed []*domain.StatusChanged
	err     error
}

func (e *recordingEvents) PublishOrderPlaced(_ context.Context, ev *domain.OrderPlaced) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.placed = append(e.placed, ev)
	return e.err
}

func (e *recordingEvents) PublishStatusChanged(_ context.Context, ev *domain.StatusChanged) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changed = append(e.changed, ev)
	return e.err
}

type stubPayments map[string]*port.PaymentResult

func (p stubPayments) VerifyTransaction(_ context.Context, id string) (*port.PaymentResult, error) {
	if res, ok := p[id]; ok {
		return res, nil
	}
	return nil, errors.New("provider unavailable")
}

func (r *memOrderRepo) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusPending && o.PaymentStatus != domain.PaymentPaid && o.CreatedAt.Before(cutoff) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
