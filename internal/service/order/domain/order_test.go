package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func newOrder(t *testing.T, status Status) *Order {
	t.Helper()
	o, err := NewOrder("o-1", "TEA-1", "cust-1", []OrderItem{
		{ProductID: "tgy-100", UnitPrice: 320, Quantity: 2},
		{ProductID: "sencha-50", UnitPrice: 150.5, Quantity: 1},
	}, now)
	require.NoError(t, err)
	o.Status = status
	return o
}

func TestNewOrderTotals(t *testing.T) {
	o := newOrder(t, StatusPending)
	assert.Equal(t, 790.5, o.Subtotal)
	assert.Equal(t, 640.0, o.Items[0].LineTotal)

	o.SetShippingFee(60)
	assert.Equal(t, 850.5, o.Total)

	o.ApplyDiscount("SAVE10", 79.05, false)
	assert.Equal(t, 771.45, o.Total)

	o.ApplyDiscount("FREESHIP", 0, true)
	assert.Equal(t, 790.5, o.Total)
	assert.Zero(t, o.ShippingFee)

	_, err := NewOrder("o-2", "TEA-2", "cust-1", nil, now)
	assert.ErrorIs(t, err, ErrEmptyOrder)
	_, err = NewOrder("o-2", "TEA-2", "cust-1", []OrderItem{{ProductID: "x", Quantity: 0}}, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestNewOrderQuantityBounds(t *testing.T) {
	_, err := NewOrder("o-3", "TEA-3", "cust-1", []OrderItem{{ProductID: "tgy-100", UnitPrice: 120, Quantity: 1 << 55}}, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = NewOrder("o-3", "TEA-3", "cust-1", []OrderItem{{ProductID: "tgy-100", UnitPrice: 120, Quantity: MaxItemQuantity + 1}}, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = NewOrder("o-3", "TEA-3", "cust-1", []OrderItem{{ProductID: "tgy-100", UnitPrice: 120, Quantity: -2}}, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	o, err := NewOrder("o-3", "TEA-3", "cust-1", []OrderItem{{ProductID: "tgy-100", UnitPrice: 120, Quantity: MaxItemQuantity}}, now)
	require.NoError(t, err)
	assert.Equal(t, 119880.0, o.Subtotal)
	assert.Equal(t, 119880.0, o.Total)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 0.13, roundCents(0.125))
	assert.Equal(t, -0.13, roundCents(-0.125))
	assert.Equal(t, 771.45, roundCents(790.5-79.05+60))

	// 超出 int64 表示范围的金额不能翻转为负数
	big := roundCents(1e17)
	assert.Greater(t, big, 0.0)
	assert.Equal(t, 1e17, big)
}

func TestCancel(t *testing.T) {
	t.Run("paid order is cancellable", func(t *testing.T) {
		o := newOrder(t, StatusPaid)
		o.PaymentStatus = PaymentPaid
		total := o.Total

		require.NoError(t, o.Cancel("changed my mind", now))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "changed my mind", o.CancelReason)
		require.NotNil(t, o.CancelledAt)
		assert.Equal(t, now, *o.CancelledAt)
		assert.Equal(t, PaymentPaid, o.PaymentStatus, "no payment reversal")
		assert.Equal(t, total, o.Total)
	})

	for _, s := range []Status{StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded} {
		t.Run("rejects "+string(s), func(t *testing.T) {
			o := newOrder(t, s)
			assert.ErrorIs(t, o.Cancel("too late", now), ErrCannotCancel)
			assert.Equal(t, s, o.Status)
			assert.Nil(t, o.CancelledAt)
		})
	}
}

func TestNormalizeReason(t *testing.T) {
	r, err := NormalizeReason("  changed my mind \n", 500)
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", r)

	_, err = NormalizeReason("   ", 500)
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, err = NormalizeReason(strings.Repeat("a", 501), 500)
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, err = NormalizeReason(strings.Repeat("茶", 500), 500)
	assert.NoError(t, err, "length counts characters, not bytes")

	_, err = NormalizeReason(strings.Repeat("a", 501), 800)
	assert.ErrorIs(t, err, ErrInvalidReason, "limit cannot be raised past 500")
	_, err = NormalizeReason(strings.Repeat("a", 101), 100)
	assert.ErrorIs(t, err, ErrInvalidReason)
}

func TestAdvanceFollowsHappyPath(t *testing.T) {
	o := newOrder(t, StatusPending)

	require.NoError(t, o.Advance(StatusPaid, now))
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	require.NotNil(t, o.PaidAt)

	assert.ErrorIs(t, o.Advance(StatusShipped, now), ErrInvalidTransition, "cannot skip processing")
	assert.ErrorIs(t, o.Advance(StatusPending, now), ErrInvalidTransition, "no backwards moves")

	require.NoError(t, o.Advance(StatusProcessing, now))
	require.NoError(t, o.Advance(StatusShipped, now))
	require.NoError(t, o.Advance(StatusDelivered, now))
	assert.NotNil(t, o.ProcessingAt)
	assert.NotNil(t, o.ShippedAt)
	assert.NotNil(t, o.DeliveredAt)

	assert.ErrorIs(t, o.Advance(StatusDelivered, now), ErrInvalidTransition)
}

func TestRefund(t *testing.T) {
	o := newOrder(t, StatusShipped)
	require.NoError(t, o.Refund(now))
	assert.Equal(t, StatusRefunded, o.Status)
	assert.NotNil(t, o.RefundedAt)

	for _, s := range []Status{StatusDelivered, StatusCancelled, StatusRefunded} {
		assert.ErrorIs(t, newOrder(t, s).Refund(now), ErrInvalidTransition, string(s))
	}
}

func TestStatusReached(t *testing.T) {
	assert.True(t, StatusShipped.Reached(StatusProcessing))
	assert.True(t, StatusShipped.Reached(StatusShipped))
	assert.False(t, StatusPaid.Reached(StatusShipped))
	assert.False(t, StatusCancelled.Reached(StatusPaid))
}
