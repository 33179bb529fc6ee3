package booking_test

import (
	"testing"

	"cursedticket/booking"
	"cursedticket/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestResolvePrice(t *testing.T) {
	full := entity.Pricing{Base: price(20), VIP: price(35), Student: price(12), Senior: price(15)}
	baseOnly := entity.Pricing{Base: price(20)}

	testCases := []struct {
		name      string
		pricing   entity.Pricing
		tier      string
		wantPrice int64
		wantTier  entity.Tier
	}{
		{name: "regular", pricing: full, tier: "regular", wantPrice: 20, wantTier: entity.TierRegular},
		{name: "empty tier", pricing: full, tier: "", wantPrice: 20, wantTier: entity.TierRegular},
		{name: "vip", pricing: full, tier: "vip", wantPrice: 35, wantTier: entity.TierVIP},
		{name: "student mixed case", pricing: full, tier: " Student ", wantPrice: 12, wantTier: entity.TierStudent},
		{name: "senior", pricing: full, tier: "senior", wantPrice: 15, wantTier: entity.TierSenior},
		{name: "unknown tier", pricing: full, tier: "platinum", wantPrice: 20, wantTier: entity.TierRegular},
		{name: "vip without price", pricing: baseOnly, tier: "vip", wantPrice: 20, wantTier: entity.TierRegular},
		{name: "student without price", pricing: baseOnly, tier: "student", wantPrice: 20, wantTier: entity.TierRegular},
		{name: "negative tier price", pricing: entity.Pricing{Base: price(20), Senior: price(-1)}, tier: "senior", wantPrice: 20, wantTier: entity.TierRegular},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, tier, err := booking.ResolvePrice(tc.pricing, tc.tier)
			require.NoError(t, err)

			assert.True(t, decimal.NewFromInt(tc.wantPrice).Equal(got), "got price %s", got)
			assert.Equal(t, tc.wantTier, tier)
		})
	}
}

func TestResolvePrice_unavailable(t *testing.T) {
	for name, pricing := range map[string]entity.Pricing{
		"no prices":     {},
		"no base":       {VIP: price(35)},
		"negative base": {Base: price(-20)},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := booking.ResolvePrice(pricing, "vip")
			assert.ErrorIs(t, err, booking.ErrPricingUnavailable)
		})
	}
}
