// Package promotion decides which promotions apply to an itinerary and
// picks the best one.
package promotion

import (
	"slices"
	"strings"
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
)

// Query is the itinerary and customer a promotion is evaluated against.
type Query struct {
	Route        string
	ServiceClass string
	TravelDate   time.Time
	Customer     domain.CustomerContext
	TrainType    string
}

// QueryFor builds a Query from an itinerary.
func QueryFor(it domain.Itinerary, customer domain.CustomerContext) Query {
	return Query{
		Route:        it.Route(),
		ServiceClass: it.ServiceClass,
		TravelDate:   it.TravelDate,
		Customer:     customer,
		TrainType:    it.TrainType,
	}
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// IsApplicable reports whether every eligibility rule of p holds for q.
func (e *Engine) IsApplicable(p domain.Promotion, q Query) bool {
	if len(p.RouteNames) > 0 && !containsFold(p.RouteNames, q.Route) {
		return false
	}

	if len(p.ServiceClasses) > 0 && !containsFold(p.ServiceClasses, q.ServiceClass) {
		return false
	}

	if !withinWindow(q.TravelDate, p.ValidFrom, p.ValidTo) {
		return false
	}

	if p.OnlyForLoyaltyMembers && !q.Customer.Loyalty() {
		return false
	}

	if len(p.UserTypes) > 0 && !slices.ContainsFunc(p.UserTypes, func(t domain.Tier) bool {
		return strings.EqualFold(strings.TrimSpace(string(t)), string(q.Customer.Tier))
	}) {
		return false
	}

	if t := strings.TrimSpace(p.TrainType); t != "" && !strings.EqualFold(t, strings.TrimSpace(q.TrainType)) {
		return false
	}

	return true
}

// Applicable returns the applicable promotions in input order.
func (e *Engine) Applicable(promotions []domain.Promotion, q Query) []domain.Promotion {
	var out []domain.Promotion
	for _, p := range promotions {
		if e.IsApplicable(p, q) {
			out = append(out, p)
		}
	}
	return out
}

// SelectBest returns the applicable promotion with the highest discount.
// On a tie the one seen first wins.
func (e *Engine) SelectBest(promotions []domain.Promotion, q Query) (domain.Promotion, bool) {
	var (
		best  domain.Promotion
		found bool
	)
	for _, p := range promotions {
		if !e.IsApplicable(p, q) {
			continue
		}
		if !found || p.DiscountPercent > best.DiscountPercent {
			best = p
			found = true
		}
	}
	return best, found
}

// MatchCode returns the promotions a promo code refers to, matched
// case-insensitively on id or name.
func MatchCode(promotions []domain.Promotion, code string) []domain.Promotion {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	var out []domain.Promotion
	for _, p := range promotions {
		if strings.EqualFold(p.ID, code) || strings.EqualFold(p.Name, code) {
			out = append(out, p)
		}
	}
	return out
}

// Apply discounts price by pct percent.
func Apply(price, pct float64) float64 {
	return price * (1 - pct/100)
}

func containsFold(set []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

// withinWindow compares calendar days, so both bounds are inclusive
// regardless of the time of day they carry.
func withinWindow(d time.Time, from, to *time.Time) bool {
	day := dateOnly(d)
	if from != nil && day.Before(dateOnly(*from)) {
		return false
	}
	if to != nil && day.After(dateOnly(*to)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks the invariants a stored promotion must satisfy.
func Validate(p domain.Promotion) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrMissingID
	}

	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}

	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return ErrDiscountOutOfRange
	}

	if p.ValidFrom != nil && p.ValidTo != nil && dateOnly(*p.ValidTo).Before(dateOnly(*p.ValidFrom)) {
		return ErrInvalidWindow
	}

	return nil
}
