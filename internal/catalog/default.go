package catalog

import (
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/fare"
)

// Default returns the built-in Italian network. Train times are wall-clock
// times stored as UTC.
func Default() *Catalog {
	day := func(m time.Month, d, hh, mm int) time.Time {
		return time.Date(2025, m, d, hh, mm, 0, 0, time.UTC)
	}
	ptr := func(t time.Time) *time.Time { return &t }

	return &Catalog{
		Stations: []domain.Station{
			{Name: "Roma", Latitude: 41.9010, Longitude: 12.5016},
			{Name: "Milano", Latitude: 45.4862, Longitude: 9.2043},
			{Name: "Napoli", Latitude: 40.8526, Longitude: 14.2727},
			{Name: "Firenze", Latitude: 43.7765, Longitude: 11.2480},
			{Name: "Bologna", Latitude: 44.5058, Longitude: 11.3426},
			{Name: "Torino", Latitude: 45.0621, Longitude: 7.6784},
			{Name: "Venezia", Latitude: 45.4410, Longitude: 12.3210},
			{Name: "Verona", Latitude: 45.4290, Longitude: 10.9823},
			{Name: "Bari", Latitude: 41.1177, Longitude: 16.8697},
		},
		Distances: []domain.DistanceEntry{
			{From: "Roma", To: "Milano", Km: 570},
			{From: "Roma", To: "Napoli", Km: 225},
			{From: "Roma", To: "Firenze", Km: 261},
			{From: "Firenze", To: "Bologna", Km: 97},
			{From: "Bologna", To: "Milano", Km: 215},
			{From: "Milano", To: "Torino", Km: 143},
			{From: "Milano", To: "Venezia", Km: 267},
			{From: "Bologna", To: "Venezia", Km: 154},
			{From: "Milano", To: "Verona", Km: 148},
			{From: "Roma", To: "Bari", Km: 450},
		},
		PremiumTrainTypes: append([]string(nil), fare.DefaultPremiumTrainTypes...),
		Trains: []domain.Train{
			{
				ID: 1, Name: "Frecciarossa 9521", DepartureStation: "Roma", ArrivalStation: "Milano",
				DepartsAt: day(time.June, 2, 8, 0), ArrivesAt: day(time.June, 2, 11, 10),
			},
			{
				ID: 2, Name: "Italo 8903", DepartureStation: "Milano", ArrivalStation: "Roma",
				DepartsAt: day(time.June, 2, 17, 35), ArrivesAt: day(time.June, 2, 20, 50),
			},
			{
				ID: 3, Name: "Regionale 2231", DepartureStation: "Firenze", ArrivalStation: "Bologna",
				DepartsAt: day(time.June, 2, 10, 12), ArrivesAt: day(time.June, 2, 11, 50),
			},
			{
				ID: 4, Name: "Intercity 591", DepartureStation: "Roma", ArrivalStation: "Napoli",
				DepartsAt: day(time.June, 2, 13, 4), ArrivesAt: day(time.June, 2, 15, 10),
			},
			{
				ID: 5, Name: "Frecciargento 8511", DepartureStation: "Venezia", ArrivalStation: "Roma",
				DepartsAt: day(time.June, 2, 7, 26), ArrivesAt: day(time.June, 2, 11, 25),
			},
		},
		Promotions: []domain.Promotion{
			{
				ID:              "estate",
				Name:            "ESTATE2025",
				Description:     "Sconto estivo sulle tratte Roma-Milano",
				DiscountPercent: 15,
				RouteNames:      []string{"Roma-Milano", "Milano-Roma"},
				ValidFrom:       ptr(day(time.June, 1, 0, 0)),
				ValidTo:         ptr(day(time.August, 31, 0, 0)),
			},
			{
				ID:                    "fedelta",
				Name:                  "FEDELTA20",
				Description:           "Riservata ai soci fedeltà",
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
				ID:              "frecce",
				Name:            "FRECCE5",
				Description:     "Sconto sui treni Frecciarossa",
				DiscountPercent: 5,
				TrainType:       "Frecciarossa",
			},
		},
	}
}
