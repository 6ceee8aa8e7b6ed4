package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirinyoku/railtix/internal/domain"
)

type standardPolicy struct{ *shared }

func (standardPolicy) Tier() domain.Tier { return domain.TierStandard }
func (standardPolicy) sealed()           {}

// Price charges the base fare, less a promotion whitelisted for the standard
// tier or a legacy code. Unknown codes are ignored.
func (p standardPolicy) Price(
	ctx context.Context,
	it domain.Itinerary,
	code string,
	customer domain.CustomerContext,
) (Quote, error) {
	const op = "pricing.standardPolicy.Price"

	b := newQuote(domain.TierStandard, p.baseFare(it), code)
	if !hasCode(code) {
		return b.build(), nil
	}

	promo, ok, err := p.resolveCode(ctx, it, code, customer, domain.TierStandard)
	if err != nil {
		return Quote{}, fmt.Errorf("%s:%w", op, err)
	}

	if !ok {
		promo, ok = p.legacyPromotion(code)
	}

	if ok {
		b.applyPromotion(promo)
	} else {
		b.reject()
	}

	return b.build(), nil
}

func (p standardPolicy) legacyPromotion(code string) (domain.Promotion, bool) {
	key := strings.ToUpper(strings.TrimSpace(code))
	pct, ok := p.legacy[key]
	if !ok {
		return domain.Promotion{}, false
	}
	return domain.Promotion{ID: key, Name: key, DiscountPercent: pct}, true
}

type vipPolicy struct{ *shared }

func (vipPolicy) Tier() domain.Tier { return domain.TierVIP }
func (vipPolicy) sealed()           {}

// Price takes 15% off the base fare. A valid promotion adds its own discount
// plus a bonus: 10% for loyalty-only promotions, 5% otherwise.
func (p vipPolicy) Price(
	ctx context.Context,
	it domain.Itinerary,
	code string,
	customer domain.CustomerContext,
) (Quote, error) {
	const op = "pricing.vipPolicy.Price"

	b := newQuote(domain.TierVIP, p.baseFare(it), code)
	b.discount("vip tier", vipTierDiscount)

	if hasCode(code) {
		promo, ok, err := p.resolveCode(ctx, it, code, customer, domain.TierVIP)
		if err != nil {
			return Quote{}, fmt.Errorf("%s:%w", op, err)
		}

		switch {
		case !ok:
			b.reject()
		case promo.OnlyForLoyaltyMembers:
			b.applyPromotion(promo)
			b.discount("vip exclusive promotion", vipExclusiveBonus)
		default:
			b.applyPromotion(promo)
			b.discount("vip promotion bonus", vipPromotionBonus)
		}
	}

	b.floor(vipFloor)

	return b.build(), nil
}

type corporatePolicy struct{ *shared }

func (corporatePolicy) Tier() domain.Tier { return domain.TierCorporate }
func (corporatePolicy) sealed()           {}

// Price takes 10% off the base fare, 5% more for business-hours departures
// and 8% more when the base fare reaches the volume threshold. Promotions
// must be whitelisted for the corporate tier; ones not aimed at corporate
// customers earn an extra 3%.
func (p corporatePolicy) Price(
	ctx context.Context,
	it domain.Itinerary,
	code string,
	customer domain.CustomerContext,
) (Quote, error) {
	const op = "pricing.corporatePolicy.Price"

	base := p.baseFare(it)
	b := newQuote(domain.TierCorporate, base, code)
	b.discount("corporate tier", corporateTierDiscount)

	if it.DepartsAt != nil && isBusinessHours(it.DepartsAt.Hour(), it.DepartsAt.Minute()) {
		b.discount("business hours", businessHoursDiscount)
	}

	if base >= volumeThreshold {
		b.discount("volume", volumeDiscount)
	}

	if hasCode(code) {
		promo, ok, err := p.resolveCode(ctx, it, code, customer, domain.TierCorporate)
		if err != nil {
			return Quote{}, fmt.Errorf("%s:%w", op, err)
		}

		if ok {
			b.applyPromotion(promo)
			if !isCorporatePromotion(promo) {
				b.discount("corporate promotion bonus", corporatePromoBonus)
			}
		} else {
			b.reject()
		}
	}

	b.floor(corporateFloor)

	return b.build(), nil
}

// isBusinessHours covers [07:00, 09:00) and [17:00, 19:00).
func isBusinessHours(hour, minute int) bool {
	m := hour*60 + minute
	return (m >= 7*60 && m < 9*60) || (m >= 17*60 && m < 19*60)
}

var corporateMarkers = []string{"corporate", "business", "aziend"}

func isCorporatePromotion(p domain.Promotion) bool {
	text := strings.ToLower(p.Name + " " + p.Description)
	for _, m := range corporateMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
