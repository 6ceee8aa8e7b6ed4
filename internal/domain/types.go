package domain

import (
	"slices"
	"strings"
	"time"
)

// Tier identifies the pricing policy a customer is billed under.
type Tier string

const (
	TierStandard  Tier = "standard"
	TierVIP       Tier = "vip"
	TierCorporate Tier = "corporate"
)

// ParseTier maps a tier name onto a known tier. Blank or unknown names
// fall back to TierStandard.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierVIP:
		return TierVIP
	case TierCorporate:
		return TierCorporate
	default:
		return TierStandard
	}
}

// ParseTiers normalizes every entry with ParseTier, dropping duplicates.
// A nil slice stays nil.
func ParseTiers(ts []Tier) []Tier {
	if ts == nil {
		return nil
	}

	out := make([]Tier, 0, len(ts))
	for _, t := range ts {
		tier := ParseTier(string(t))
		if !slices.Contains(out, tier) {
			out = append(out, tier)
		}
	}

	return out
}

type Train struct {
	ID               int64     `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Type             string    `json:"type,omitempty" yaml:"type"`
	DepartureStation string    `json:"departure_station" yaml:"departure_station"`
	ArrivalStation   string    `json:"arrival_station" yaml:"arrival_station"`
	DepartsAt        time.Time `json:"departs_at" yaml:"departs_at"`
	ArrivesAt        time.Time `json:"arrives_at" yaml:"arrives_at"`
}

// TrainType returns the explicit type when set, otherwise the first word
// of the train name ("Frecciarossa 9521" -> "Frecciarossa").
func (t Train) TrainType() string {
	if s := strings.TrimSpace(t.Type); s != "" {
		return s
	}
	fields := strings.Fields(t.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type Ticket struct {
	ID               string    `json:"id"`
	TrainID          int64     `json:"train_id"`
	PassengerName    string    `json:"passenger_name"`
	Username         string    `json:"username,omitempty"`
	DepartureStation string    `json:"departure_station"`
	ArrivalStation   string    `json:"arrival_station"`
	TravelDate       time.Time `json:"travel_date"`
	ServiceClass     string    `json:"service_class"`
	Tier             Tier      `json:"tier"`
	PromoCode        string    `json:"promo_code,omitempty"`
	Price            float64   `json:"price"`
	SeatCount        int       `json:"seat_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Promotion struct {
	ID                    string     `json:"id" yaml:"id"`
	Name                  string     `json:"name" yaml:"name"`
	Description           string     `json:"description" yaml:"description"`
	DiscountPercent       float64    `json:"discount_percent" yaml:"discount_percent"`
	RouteNames            []string   `json:"route_names,omitempty" yaml:"route_names"`
	ServiceClasses        []string   `json:"service_classes,omitempty" yaml:"service_classes"`
	ValidFrom             *time.Time `json:"valid_from,omitempty" yaml:"valid_from"`
	ValidTo               *time.Time `json:"valid_to,omitempty" yaml:"valid_to"`
	OnlyForLoyaltyMembers bool       `json:"only_for_loyalty_members" yaml:"only_for_loyalty_members"`
	TrainType             string     `json:"train_type,omitempty" yaml:"train_type"`
	UserTypes             []Tier     `json:"user_types,omitempty" yaml:"user_types"`
}

// CustomerContext describes who is buying.
type CustomerContext struct {
	Username string `json:"username"`
	Tier     Tier   `json:"tier"`
}

// Loyalty reports loyalty membership. Currently every VIP is a loyalty member
// and nobody else is.
func (c CustomerContext) Loyalty() bool {
	return c.Tier == TierVIP
}

// Itinerary is the unit priced by the fare calculator.
type Itinerary struct {
	Departure    string
	Arrival      string
	TravelDate   time.Time
	ServiceClass string
	TrainType    string
	// DepartsAt is the scheduled departure, when known.
	DepartsAt *time.Time
}

// Route returns the "Departure-Arrival" key promotions are scoped by.
func (i Itinerary) Route() string {
	return RouteKey(i.Departure, i.Arrival)
}

func RouteKey(departure, arrival string) string {
	return strings.TrimSpace(departure) + "-" + strings.TrimSpace(arrival)
}

type Station struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

type DistanceEntry struct {
	From string  `json:"from" yaml:"from"`
	To   string  `json:"to" yaml:"to"`
	Km   float64 `json:"km" yaml:"km"`
}

type TrainAvailability struct {
	TrainID   int64 `json:"train_id"`
	Available int   `json:"available"`
	Capacity  int   `json:"capacity"`
}
