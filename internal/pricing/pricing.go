// Package pricing turns a base fare into a customer price.
//
// There is one policy per customer tier. The set is closed: Policy has an
// unexported method, and Selector.Select is the only place a tier is mapped
// to its policy. All policies share one fare.Calculator and one
// promotion.Engine, and each one re-checks promo codes against its own tier
// before honouring them.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/promotion"
)

const (
	vipTierDiscount       = 15.0
	vipExclusiveBonus     = 10.0
	vipPromotionBonus     = 5.0
	vipFloor              = 3.0
	corporateTierDiscount = 10.0
	businessHoursDiscount = 5.0
	volumeDiscount        = 8.0
	volumeThreshold       = 100.0
	corporatePromoBonus   = 3.0
	corporateFloor        = 4.0
)

// DefaultLegacyCodes are promo codes honoured for the standard tier without a
// stored promotion.
var DefaultLegacyCodes = map[string]float64{
	"SCONTO10": 10,
	"SCONTO20": 20,
	"STUDENTE": 25,
}

// PromotionSource supplies the current promotion list.
type PromotionSource interface {
	ListAll(ctx context.Context) ([]domain.Promotion, error)
}

// Adjustment is one discount step applied on top of the base fare.
type Adjustment struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

type AppliedPromotion struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Quote is a priced itinerary together with how the price was reached.
type Quote struct {
	Tier         domain.Tier       `json:"tier"`
	BaseFare     float64           `json:"base_fare"`
	Price        float64           `json:"price"`
	PromoCode    string            `json:"promo_code,omitempty"`
	Promotion    *AppliedPromotion `json:"promotion,omitempty"`
	CodeRejected bool              `json:"code_rejected"`
	Adjustments  []Adjustment      `json:"adjustments,omitempty"`
}

// Policy prices an itinerary for one tier.
type Policy interface {
	Tier() domain.Tier
	Price(ctx context.Context, it domain.Itinerary, promoCode string, customer domain.CustomerContext) (Quote, error)
	sealed()
}

type Config struct {
	LegacyCodes map[string]float64
}

type shared struct {
	fare   *fare.Calculator
	engine *promotion.Engine
	promos PromotionSource
	legacy map[string]float64
}

type Selector struct {
	standard  standardPolicy
	vip       vipPolicy
	corporate corporatePolicy
	deps      *shared
}

func NewSelector(
	calc *fare.Calculator,
	engine *promotion.Engine,
	promos PromotionSource,
	cfg Config,
) *Selector {
	if cfg.LegacyCodes == nil {
		cfg.LegacyCodes = DefaultLegacyCodes
	}

	legacy := make(map[string]float64, len(cfg.LegacyCodes))
	for code, pct := range cfg.LegacyCodes {
		legacy[strings.ToUpper(strings.TrimSpace(code))] = pct
	}

	sh := &shared{
		fare:   calc,
		engine: engine,
		promos: promos,
		legacy: legacy,
	}

	return &Selector{
		standard:  standardPolicy{sh},
		vip:       vipPolicy{sh},
		corporate: corporatePolicy{sh},
		deps:      sh,
	}
}

// Select returns the policy for tier; unknown tiers get the standard policy.
func (s *Selector) Select(tier domain.Tier) Policy {
	switch domain.ParseTier(string(tier)) {
	case domain.TierVIP:
		return s.vip
	case domain.TierCorporate:
		return s.corporate
	default:
		return s.standard
	}
}

// Price prices it under the customer's tier.
func (s *Selector) Price(
	ctx context.Context,
	it domain.Itinerary,
	promoCode string,
	customer domain.CustomerContext,
) (Quote, error) {
	return s.Select(customer.Tier).Price(ctx, it, promoCode, customer)
}

// Fare exposes the shared calculator.
func (s *Selector) Fare() *fare.Calculator {
	return s.deps.fare
}

// Applicable lists the promotions applicable to it for customer.
func (s *Selector) Applicable(
	ctx context.Context,
	it domain.Itinerary,
	customer domain.CustomerContext,
) ([]domain.Promotion, error) {
	const op = "pricing.Selector.Applicable"

	promos, err := s.deps.promos.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	customer.Tier = domain.ParseTier(string(customer.Tier))

	return s.deps.engine.Applicable(promos, promotion.QueryFor(it, customer)), nil
}

func (sh *shared) baseFare(it domain.Itinerary) float64 {
	return sh.fare.BaseFare(it.Departure, it.Arrival, it.ServiceClass, it.TrainType)
}

// resolveCode finds the best promotion the code refers to that is applicable
// under tier. The customer's own tier is overridden so that a code is only
// ever judged by the rules of the policy that is pricing.
func (sh *shared) resolveCode(
	ctx context.Context,
	it domain.Itinerary,
	code string,
	customer domain.CustomerContext,
	tier domain.Tier,
) (domain.Promotion, bool, error) {
	const op = "pricing.resolveCode"

	promos, err := sh.promos.ListAll(ctx)
	if err != nil {
		return domain.Promotion{}, false, fmt.Errorf("%s:%w", op, err)
	}

	customer.Tier = tier
	p, ok := sh.engine.SelectBest(promotion.MatchCode(promos, code), promotion.QueryFor(it, customer))

	return p, ok, nil
}

type quoteBuilder struct {
	q     Quote
	price float64
}

func newQuote(tier domain.Tier, base float64, code string) *quoteBuilder {
	return &quoteBuilder{
		q: Quote{
			Tier:      tier,
			BaseFare:  base,
			PromoCode: strings.TrimSpace(code),
		},
		price: base,
	}
}

func (b *quoteBuilder) discount(label string, pct float64) {
	b.price = promotion.Apply(b.price, pct)
	b.q.Adjustments = append(b.q.Adjustments, Adjustment{Label: label, Percent: pct})
}

func (b *quoteBuilder) applyPromotion(p domain.Promotion) {
	b.q.Promotion = &AppliedPromotion{
		ID:              p.ID,
		Name:            p.Name,
		DiscountPercent: p.DiscountPercent,
	}
	b.discount("promotion "+p.Name, p.DiscountPercent)
}

func (b *quoteBuilder) reject() {
	b.q.CodeRejected = true
}

// floor keeps discounts from pushing the price under minPrice. A base fare that is
// already below minPrice is left as is.
func (b *quoteBuilder) floor(minPrice float64) {
	limit := minPrice
	if b.q.BaseFare < limit {
		limit = b.q.BaseFare
	}
	if b.price < limit {
		b.price = limit
	}
}

func (b *quoteBuilder) build() Quote {
	if b.price < 0 {
		b.price = 0
	}
	b.q.Price = fare.Round2(b.price)
	return b.q
}

func hasCode(code string) bool {
	return strings.TrimSpace(code) != ""
}
