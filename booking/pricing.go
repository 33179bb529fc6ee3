package booking

import (
	"strings"

	"cursedticket/entity"

	"github.com/shopspring/decimal"
)

// NormalizeTier maps anything outside the known tiers to regular.
func NormalizeTier(tier string) entity.Tier {
	switch t := entity.Tier(strings.ToLower(strings.TrimSpace(tier))); t {
	case entity.TierRegular, entity.TierStudent, entity.TierSenior, entity.TierVIP:
		return t
	}
	return entity.TierRegular
}

// ResolvePrice returns the unit price and the tier that was actually applied.
// A tier without a price on the event silently falls back to the base price
// and is reported as regular. Every sale needs a valid base price.
func ResolvePrice(pricing entity.Pricing, tier string) (decimal.Decimal, entity.Tier, error) {
	base := pricing.Base
	if !base.Valid || base.Decimal.IsNegative() {
		return decimal.Zero, "", ErrPricingUnavailable
	}

	t := NormalizeTier(tier)
	if t == entity.TierRegular {
		return base.Decimal, entity.TierRegular, nil
	}

	price := pricing.Price(t)
	if !price.Valid || price.Decimal.IsNegative() {
		return base.Decimal, entity.TierRegular, nil
	}

	return price.Decimal, t, nil
}
