package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/promotion"
)

type staticPromotions []domain.Promotion

func (s staticPromotions) ListAll(context.Context) ([]domain.Promotion, error) {
	return s, nil
}

type failingPromotions struct{}

func (failingPromotions) ListAll(context.Context) ([]domain.Promotion, error) {
	return nil, errors.New("store down")
}

func ptr[T any](v T) *T { return &v }

var (
	summerFrom = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	summerTo   = time.Date(2024, time.August, 31, 0, 0, 0, 0, time.UTC)
	travelDay  = time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
)

func testPromotions() staticPromotions {
	return staticPromotions{
		{
			ID:              "estate",
			Name:            "ESTATE2024",
			DiscountPercent: 15,
			RouteNames:      []string{"Roma-Milano"},
			ServiceClasses:  []string{"Seconda Classe"},
			ValidFrom:       ptr(summerFrom),
			ValidTo:         ptr(summerTo),
		},
		{
			ID:                    "fedelta",
			Name:                  "FEDELTA20",
			DiscountPercent:       20,
			OnlyForLoyaltyMembers: true,
		},
		{
			ID:              "aziende",
			Name:            "AZIENDE10",
			Description:     "Tariffa aziendale",
			DiscountPercent: 10,
			UserTypes:       []domain.Tier{domain.TierCorporate},
		},
		{
			ID:              "meta",
			Name:            "META50",
			DiscountPercent: 50,
		},
	}
}

func newTestSelector(promos PromotionSource) *Selector {
	network := fare.NewNetwork(nil, []domain.DistanceEntry{
		{From: "Roma", To: "Milano", Km: 570},
		{From: "Lecco", To: "Como", Km: 30},
		{From: "Lecco", To: "Bergamo", Km: 20},
		{From: "Monza", To: "Sesto", Km: 10},
	})
	return NewSelector(fare.New(network, fare.Config{}), promotion.NewEngine(), promos, Config{})
}

func romaMilano() domain.Itinerary {
	return domain.Itinerary{
		Departure:    "Roma",
		Arrival:      "Milano",
		TravelDate:   travelDay,
		ServiceClass: "Seconda Classe",
		TrainType:    "Regionale",
	}
}

func TestSelector_Select(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())

	assert.Equal(t, domain.TierVIP, s.Select("VIP").Tier())
	assert.Equal(t, domain.TierCorporate, s.Select(" Corporate ").Tier())
	assert.Equal(t, domain.TierStandard, s.Select("").Tier())
	assert.Equal(t, domain.TierStandard, s.Select("gold").Tier())
}

func TestStandardPolicy(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	ctx := context.Background()
	customer := domain.CustomerContext{Username: "anna", Tier: domain.TierStandard}

	tests := []struct {
		name         string
		code         string
		want         float64
		wantRejected bool
		wantPromo    string
	}{
		{name: "no code", want: 85.50},
		{name: "seasonal promotion", code: "ESTATE2024", want: 72.68, wantPromo: "estate"},
		{name: "code by id", code: "estate", want: 72.68, wantPromo: "estate"},
		{name: "legacy code", code: "sconto10", want: 76.95, wantPromo: "SCONTO10"},
		{name: "unknown code", code: "BOGUS", want: 85.50, wantRejected: true},
		{name: "loyalty only code", code: "FEDELTA20", want: 85.50, wantRejected: true},
		{name: "corporate only code", code: "AZIENDE10", want: 85.50, wantRejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := s.Price(ctx, romaMilano(), tt.code, customer)
			require.NoError(t, err)

			assert.Equal(t, domain.TierStandard, q.Tier)
			assert.Equal(t, 85.50, q.BaseFare)
			assert.InDelta(t, tt.want, q.Price, 1e-9)
			assert.Equal(t, tt.wantRejected, q.CodeRejected)
			if tt.wantPromo == "" {
				assert.Nil(t, q.Promotion)
			} else {
				require.NotNil(t, q.Promotion)
				assert.Equal(t, tt.wantPromo, q.Promotion.ID)
			}
		})
	}
}

func TestStandardPolicy_PromotionOutsideWindow(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	it := romaMilano()
	it.TravelDate = time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)

	q, err := s.Price(context.Background(), it, "ESTATE2024", domain.CustomerContext{})
	require.NoError(t, err)
	assert.True(t, q.CodeRejected)
	assert.Equal(t, 85.50, q.Price)
}

func TestVIPPolicy(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	ctx := context.Background()
	customer := domain.CustomerContext{Username: "vip", Tier: domain.TierVIP}

	tests := []struct {
		name         string
		code         string
		want         float64
		wantRejected bool
	}{
		{name: "tier discount only", want: 72.68},
		{name: "loyalty promotion gets exclusive bonus", code: "FEDELTA20", want: 52.33},
		{name: "other promotion gets small bonus", code: "ESTATE2024", want: 58.69},
		{name: "legacy codes are standard only", code: "SCONTO10", want: 72.68, wantRejected: true},
		{name: "corporate code rejected", code: "AZIENDE10", want: 72.68, wantRejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := s.Price(ctx, romaMilano(), tt.code, customer)
			require.NoError(t, err)
			assert.Equal(t, domain.TierVIP, q.Tier)
			assert.InDelta(t, tt.want, q.Price, 1e-9)
			assert.Equal(t, tt.wantRejected, q.CodeRejected)
		})
	}
}

func TestVIPPolicy_Floor(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	ctx := context.Background()
	customer := domain.CustomerContext{Tier: domain.TierVIP}

	it := domain.Itinerary{Departure: "Lecco", Arrival: "Bergamo", ServiceClass: "Economy", TravelDate: travelDay}
	q, err := s.Price(ctx, it, "META50", customer)
	require.NoError(t, err)
	assert.Equal(t, 3.00, q.BaseFare)
	assert.Equal(t, 3.00, q.Price)

	it = domain.Itinerary{Departure: "Monza", Arrival: "Sesto", ServiceClass: "Economy", TravelDate: travelDay}
	q, err = s.Price(ctx, it, "", customer)
	require.NoError(t, err)
	assert.Equal(t, 1.50, q.BaseFare)
	assert.Equal(t, 1.50, q.Price, "the floor never raises a fare above its base")
}

func TestCorporatePolicy(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	ctx := context.Background()
	customer := domain.CustomerContext{Username: "acme", Tier: domain.TierCorporate}

	morning := time.Date(2024, time.July, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, time.July, 15, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		mutate       func(it *domain.Itinerary)
		code         string
		want         float64
		wantRejected bool
	}{
		{name: "tier discount only", want: 76.95},
		{name: "business hours", mutate: func(it *domain.Itinerary) { it.DepartsAt = &morning }, want: 73.10},
		{name: "end of evening window is excluded", mutate: func(it *domain.Itinerary) { it.DepartsAt = &evening }, want: 76.95},
		{name: "volume threshold", mutate: func(it *domain.Itinerary) { it.TrainType = "Frecciarossa" }, want: 106.19},
		{name: "corporate promotion, no bonus", code: "AZIENDE10", want: 69.26},
		{name: "general promotion earns bonus", code: "ESTATE2024", want: 63.45},
		{name: "loyalty code rejected", code: "FEDELTA20", want: 76.95, wantRejected: true},
		{name: "legacy code rejected", code: "STUDENTE", want: 76.95, wantRejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := romaMilano()
			if tt.mutate != nil {
				tt.mutate(&it)
			}
			q, err := s.Price(ctx, it, tt.code, customer)
			require.NoError(t, err)
			assert.Equal(t, domain.TierCorporate, q.Tier)
			assert.InDelta(t, tt.want, q.Price, 1e-9)
			assert.Equal(t, tt.wantRejected, q.CodeRejected)
		})
	}
}

func TestCorporatePolicy_Floor(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	it := domain.Itinerary{Departure: "Lecco", Arrival: "Como", ServiceClass: "Economy", TravelDate: travelDay}

	q, err := s.Price(context.Background(), it, "META50", domain.CustomerContext{Tier: domain.TierCorporate})
	require.NoError(t, err)
	assert.Equal(t, 4.50, q.BaseFare)
	assert.Equal(t, 4.00, q.Price)
}

func TestPolicies_TiersNeverExceedStandard(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())
	ctx := context.Background()

	itineraries := []domain.Itinerary{
		romaMilano(),
		{Departure: "Milano", Arrival: "Roma", ServiceClass: "Prima Classe", TrainType: "Italo", TravelDate: travelDay},
		{Departure: "Lecco", Arrival: "Como", ServiceClass: "Business", TravelDate: travelDay},
		{Departure: "Nowhere", Arrival: "Elsewhere", ServiceClass: "Economy", TravelDate: travelDay},
	}

	for _, it := range itineraries {
		std, err := s.Price(ctx, it, "", domain.CustomerContext{Tier: domain.TierStandard})
		require.NoError(t, err)
		vip, err := s.Price(ctx, it, "", domain.CustomerContext{Tier: domain.TierVIP})
		require.NoError(t, err)
		corp, err := s.Price(ctx, it, "", domain.CustomerContext{Tier: domain.TierCorporate})
		require.NoError(t, err)

		assert.Less(t, vip.Price, std.Price, "%s-%s", it.Departure, it.Arrival)
		assert.Less(t, corp.Price, std.Price, "%s-%s", it.Departure, it.Arrival)
	}
}

func TestPolicies_PromotionSourceError(t *testing.T) {
	t.Parallel()

	s := newTestSelector(failingPromotions{})

	for _, tier := range []domain.Tier{domain.TierStandard, domain.TierVIP, domain.TierCorporate} {
		_, err := s.Price(context.Background(), romaMilano(), "ANY", domain.CustomerContext{Tier: tier})
		assert.Error(t, err, tier)
	}

	q, err := s.Price(context.Background(), romaMilano(), "", domain.CustomerContext{})
	require.NoError(t, err, "no code means no promotion lookup")
	assert.Equal(t, 85.50, q.Price)
}

func TestSelector_Applicable(t *testing.T) {
	t.Parallel()

	s := newTestSelector(testPromotions())

	promos, err := s.Applicable(context.Background(), romaMilano(), domain.CustomerContext{Tier: "VIP"})
	require.NoError(t, err)

	ids := make([]string, 0, len(promos))
	for _, p := range promos {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"estate", "fedelta", "meta"}, ids)
}

func TestIsBusinessHours(t *testing.T) {
	t.Parallel()

	assert.True(t, isBusinessHours(7, 0))
	assert.True(t, isBusinessHours(8, 59))
	assert.False(t, isBusinessHours(9, 0))
	assert.False(t, isBusinessHours(6, 59))
	assert.True(t, isBusinessHours(17, 30))
	assert.False(t, isBusinessHours(19, 0))
	assert.False(t, isBusinessHours(12, 0))
}
