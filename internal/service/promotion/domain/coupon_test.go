package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func save10() *Coupon {
	return &Coupon{
		Code:           "SAVE10",
		DiscountType:   DiscountTypePercentage,
		DiscountValue:  10,
		MinOrderAmount: 500,
		MaxDiscount:    ptrF(200),
		PerUserLimit:   1,
		IsActive:       true,
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 \t"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestComputeDiscount(t *testing.T) {
	c := save10()
	assert.InDelta(t, 100.0, c.ComputeDiscount(1000), 1e-9)
	assert.InDelta(t, 200.0, c.ComputeDiscount(3000), 1e-9, "capped by max_discount")

	c.MaxDiscount = ptrF(0)
	assert.Zero(t, c.ComputeDiscount(1000), "zero cap yields zero discount")

	fixed := &Coupon{DiscountType: DiscountTypeFixedAmount, DiscountValue: 300}
	assert.InDelta(t, 300.0, fixed.ComputeDiscount(1000), 1e-9)
	assert.InDelta(t, 120.0, fixed.ComputeDiscount(120), 1e-9, "never exceeds subtotal")

	ship := &Coupon{DiscountType: DiscountTypeFreeShipping, DiscountValue: 50}
	assert.Zero(t, ship.ComputeDiscount(1000))

	over := &Coupon{DiscountType: DiscountTypePercentage, DiscountValue: 150}
	assert.InDelta(t, 80.0, over.ComputeDiscount(80), 1e-9)
}

func TestCheckMinimumReportsShortfall(t *testing.T) {
	err := save10().CheckMinimum(400)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBelowMinimum)
	assert.Contains(t, err.Error(), "100.00")

	assert.NoError(t, save10().CheckMinimum(500), "boundary is inclusive")
}

func TestCheckWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := save10()

	future := now.Add(time.Hour)
	c.StartsAt = &future
	assert.ErrorIs(t, c.CheckWindow(now), ErrCouponNotYetValid)

	past := now.Add(-time.Hour)
	c.StartsAt = nil
	c.ExpiresAt = &past
	assert.ErrorIs(t, c.CheckWindow(now), ErrCouponExpired)

	c.StartsAt, c.ExpiresAt = &now, &now
	assert.NoError(t, c.CheckWindow(now), "both bounds are inclusive")
}

func TestAppliesTo(t *testing.T) {
	c := save10()
	assert.True(t, c.AppliesTo(nil, nil), "no allow-list means storewide")

	c.ProductIDs = []string{"p-1"}
	assert.True(t, c.AppliesTo([]string{"p-9", "p-1"}, nil))
	assert.False(t, c.AppliesTo([]string{"p-9"}, nil))

	c.ProductIDs = nil
	c.CategoryIDs = []string{"oolong"}
	assert.True(t, c.NeedsCategories())
	assert.True(t, c.AppliesTo([]string{"p-9"}, []string{"green", "oolong"}))
	assert.False(t, c.AppliesTo([]string{"p-9"}, []string{"green"}))
}

func TestCheckUsage(t *testing.T) {
	c := save10()
	c.UsageLimit = ptrI(100)

	assert.NoError(t, c.CheckUsage(UsageCounts{Total: 99}))
	assert.ErrorIs(t, c.CheckUsage(UsageCounts{Total: 100}), ErrUsageLimitReached)
	assert.ErrorIs(t, c.CheckUsage(UsageCounts{Total: 5, Customer: 1}), ErrPerUserLimitReached)

	c.PerUserLimit = 0
	assert.NoError(t, c.CheckUsage(UsageCounts{Total: 5, Customer: 40}), "non-positive per-user limit is uncapped")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, save10().Validate())

	c := save10()
	c.DiscountType = "bogo"
	assert.ErrorIs(t, c.Validate(), ErrInvalidCoupon)

	c = save10()
	c.DiscountValue = -1
	assert.ErrorIs(t, c.Validate(), ErrInvalidCoupon)

	c = save10()
	c.MaxDiscount = ptrF(-5)
	assert.ErrorIs(t, c.Validate(), ErrInvalidCoupon)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "10% off (up to 200.00)", save10().Describe())
	assert.Equal(t, "200.00 off", (&Coupon{DiscountType: DiscountTypeFixedAmount, DiscountValue: 200}).Describe())
	assert.Equal(t, "Free shipping", (&Coupon{DiscountType: DiscountTypeFreeShipping}).Describe())
	assert.Equal(t, "Spring sale", (&Coupon{DiscountType: DiscountTypeFreeShipping, Description: "Spring sale"}).Describe())
}

func TestRejectionMatchesByCode(t *testing.T) {
	err := BelowMinimum(500, 100)
	assert.ErrorIs(t, err, ErrBelowMinimum)
	assert.NotErrorIs(t, err, ErrCouponExpired)

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, CodeBelowMinimum, rej.Code)

	_, ok = AsRejection(ErrInvalidCoupon)
	assert.False(t, ok)
}
