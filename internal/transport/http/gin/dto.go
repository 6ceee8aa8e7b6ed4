package httpgin

import (
	"strings"
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/service/booking"
	"github.com/kirinyoku/railtix/internal/service/query"
)

const dateLayout = "2006-01-02"

// CustomerInput identifies who is buying. Unknown tiers price as standard.
type CustomerInput struct {
	Username string `json:"username"`
	Tier     string `json:"tier" example:"standard"`
}

func (c CustomerInput) customer() domain.CustomerContext {
	return domain.CustomerContext{
		Username: strings.TrimSpace(c.Username),
		Tier:     domain.ParseTier(c.Tier),
	}
}

type PurchaseTicketRequest struct {
	TrainID       int64  `json:"train_id" binding:"required"`
	PassengerName string `json:"passenger_name"`
	Departure     string `json:"departure_station"`
	Arrival       string `json:"arrival_station"`
	TravelDate    string `json:"travel_date" example:"2025-06-02"`
	ServiceClass  string `json:"service_class" example:"Seconda Classe"`
	Seats         int    `json:"seats"`
	PromoCode     string `json:"promo_code"`
	CustomerInput
}

func (r PurchaseTicketRequest) toDomain() (booking.PurchaseRequest, error) {
	day, err := parseDate("travel_date", r.TravelDate)
	if err != nil {
		return booking.PurchaseRequest{}, err
	}

	return booking.PurchaseRequest{
		TrainID:       r.TrainID,
		PassengerName: r.PassengerName,
		Departure:     r.Departure,
		Arrival:       r.Arrival,
		TravelDate:    day,
		ServiceClass:  r.ServiceClass,
		Seats:         r.Seats,
		PromoCode:     r.PromoCode,
		Customer:      r.customer(),
	}, nil
}

// ModifyTicketRequest changes an existing ticket. Omitted or blank fields
// keep their stored value.
type ModifyTicketRequest struct {
	Departure    *string `json:"departure_station"`
	Arrival      *string `json:"arrival_station"`
	ServiceClass *string `json:"service_class"`
	TravelDate   *string `json:"travel_date" example:"2025-06-03"`
}

func (r ModifyTicketRequest) toDomain(ticketID string) (booking.ModifyRequest, error) {
	req := booking.ModifyRequest{
		TicketID:     ticketID,
		Departure:    optional(r.Departure),
		Arrival:      optional(r.Arrival),
		ServiceClass: optional(r.ServiceClass),
	}

	if s := optional(r.TravelDate); s != nil {
		day, err := parseDate("travel_date", *s)
		if err != nil {
			return booking.ModifyRequest{}, err
		}
		req.TravelDate = &day
	}

	return req, nil
}

type QuoteRequest struct {
	TrainID      int64  `json:"train_id"`
	TrainType    string `json:"train_type" example:"Frecciarossa"`
	Departure    string `json:"departure_station"`
	Arrival      string `json:"arrival_station"`
	TravelDate   string `json:"travel_date" example:"2025-06-02"`
	ServiceClass string `json:"service_class"`
	PromoCode    string `json:"promo_code"`
	CustomerInput
}

func (r QuoteRequest) toDomain() (booking.QuoteRequest, error) {
	day, err := parseDate("travel_date", r.TravelDate)
	if err != nil {
		return booking.QuoteRequest{}, err
	}

	return booking.QuoteRequest{
		TrainID:      r.TrainID,
		TrainType:    r.TrainType,
		Departure:    r.Departure,
		Arrival:      r.Arrival,
		TravelDate:   day,
		ServiceClass: r.ServiceClass,
		PromoCode:    r.PromoCode,
		Customer:     r.customer(),
	}, nil
}

type ApplicablePromotionsRequest struct {
	TrainID      int64  `json:"train_id"`
	TrainType    string `json:"train_type"`
	Departure    string `json:"departure_station"`
	Arrival      string `json:"arrival_station"`
	TravelDate   string `json:"travel_date" example:"2025-06-02"`
	ServiceClass string `json:"service_class"`
	CustomerInput
}

func (r ApplicablePromotionsRequest) toDomain() (query.ApplicableRequest, error) {
	day, err := parseDate("travel_date", r.TravelDate)
	if err != nil {
		return query.ApplicableRequest{}, err
	}

	return query.ApplicableRequest{
		TrainID:      r.TrainID,
		TrainType:    r.TrainType,
		Departure:    r.Departure,
		Arrival:      r.Arrival,
		TravelDate:   day,
		ServiceClass: r.ServiceClass,
		Customer:     r.customer(),
	}, nil
}

type CreatePromotionRequest struct {
	ID                    string   `json:"id" binding:"required"`
	Name                  string   `json:"name" binding:"required"`
	Description           string   `json:"description"`
	DiscountPercent       float64  `json:"discount_percent"`
	RouteNames            []string `json:"route_names"`
	ServiceClasses        []string `json:"service_classes"`
	ValidFrom             string   `json:"valid_from" example:"2025-06-01"`
	ValidTo               string   `json:"valid_to" example:"2025-08-31"`
	OnlyForLoyaltyMembers bool     `json:"only_for_loyalty_members"`
	TrainType             string   `json:"train_type"`
	UserTypes             []string `json:"user_types"`
}

func (r CreatePromotionRequest) toDomain() (domain.Promotion, error) {
	p := domain.Promotion{
		ID:                    r.ID,
		Name:                  r.Name,
		Description:           r.Description,
		DiscountPercent:       r.DiscountPercent,
		RouteNames:            r.RouteNames,
		ServiceClasses:        r.ServiceClasses,
		OnlyForLoyaltyMembers: r.OnlyForLoyaltyMembers,
		TrainType:             r.TrainType,
	}

	for _, u := range r.UserTypes {
		p.UserTypes = append(p.UserTypes, domain.ParseTier(u))
	}

	for _, b := range []struct {
		field string
		raw   string
		dst   **time.Time
	}{
		{"valid_from", r.ValidFrom, &p.ValidFrom},
		{"valid_to", r.ValidTo, &p.ValidTo},
	} {
		if strings.TrimSpace(b.raw) == "" {
			continue
		}
		day, err := parseDate(b.field, b.raw)
		if err != nil {
			return domain.Promotion{}, err
		}
		*b.dst = &day
	}

	return p, nil
}

type CreateTrainRequest struct {
	ID               int64  `json:"id" binding:"required,gt=0"`
	Name             string `json:"name" binding:"required"`
	Type             string `json:"type"`
	DepartureStation string `json:"departure_station" binding:"required"`
	ArrivalStation   string `json:"arrival_station" binding:"required"`
	DepartsAt        string `json:"departs_at" example:"2025-06-02T08:00:00Z"`
	ArrivesAt        string `json:"arrives_at" example:"2025-06-02T11:10:00Z"`
}

func (r CreateTrainRequest) toDomain() (domain.Train, error) {
	t := domain.Train{
		ID:               r.ID,
		Name:             r.Name,
		Type:             r.Type,
		DepartureStation: r.DepartureStation,
		ArrivalStation:   r.ArrivalStation,
	}

	var err error
	if r.DepartsAt != "" {
		if t.DepartsAt, err = parseRFC3339(r.DepartsAt); err != nil {
			return domain.Train{}, domain.ValidationError{Field: "departs_at", Reason: "must be RFC3339"}
		}
	}
	if r.ArrivesAt != "" {
		if t.ArrivesAt, err = parseRFC3339(r.ArrivesAt); err != nil {
			return domain.Train{}, domain.ValidationError{Field: "arrives_at", Reason: "must be RFC3339"}
		}
	}

	return t, nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ClearTicketsResponse struct {
	Removed int `json:"removed"`
}

// parseDate reads a YYYY-MM-DD calendar day. A blank value is the zero time
// and left for the service to reject.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: field, Reason: "must be YYYY-MM-DD"}
	}

	return t, nil
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
