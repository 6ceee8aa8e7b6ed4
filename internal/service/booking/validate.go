package booking

import (
	"strings"
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
)

func validatePurchase(req PurchaseRequest) error {
	switch {
	case req.TrainID <= 0:
		return domain.ValidationError{Field: "train_id", Reason: "must be positive"}
	case blank(req.PassengerName):
		return domain.ValidationError{Field: "passenger_name"}
	case blank(req.Departure):
		return domain.ValidationError{Field: "departure_station"}
	case blank(req.Arrival):
		return domain.ValidationError{Field: "arrival_station"}
	case req.TravelDate.IsZero():
		return domain.ValidationError{Field: "travel_date"}
	case blank(req.ServiceClass):
		return domain.ValidationError{Field: "service_class"}
	}
	return nil
}

// validateModify rejects blank values. Callers translate "not supplied" to
// nil before reaching this point.
func validateModify(req ModifyRequest) error {
	switch {
	case blank(req.TicketID):
		return domain.ValidationError{Field: "ticket_id"}
	case req.Departure != nil && blank(*req.Departure):
		return domain.ValidationError{Field: "departure_station", Reason: "must not be blank"}
	case req.Arrival != nil && blank(*req.Arrival):
		return domain.ValidationError{Field: "arrival_station", Reason: "must not be blank"}
	case req.ServiceClass != nil && blank(*req.ServiceClass):
		return domain.ValidationError{Field: "service_class", Reason: "must not be blank"}
	case req.TravelDate != nil && req.TravelDate.IsZero():
		return domain.ValidationError{Field: "travel_date", Reason: "must not be zero"}
	}
	return nil
}

func validateQuote(req QuoteRequest) error {
	switch {
	case req.TrainID < 0:
		return domain.ValidationError{Field: "train_id", Reason: "must not be negative"}
	case blank(req.Departure):
		return domain.ValidationError{Field: "departure_station"}
	case blank(req.Arrival):
		return domain.ValidationError{Field: "arrival_station"}
	case req.TravelDate.IsZero():
		return domain.ValidationError{Field: "travel_date"}
	case blank(req.ServiceClass):
		return domain.ValidationError{Field: "service_class"}
	}
	return nil
}

// stage applies the supplied fields to a copy of t. Station and class names
// compare case-insensitively, dates by calendar day.
func stage(t domain.Ticket, req ModifyRequest) (next domain.Ticket, classChanged, changed bool) {
	next = t

	if req.Departure != nil && !strings.EqualFold(strings.TrimSpace(*req.Departure), t.DepartureStation) {
		next.DepartureStation = strings.TrimSpace(*req.Departure)
		changed = true
	}

	if req.Arrival != nil && !strings.EqualFold(strings.TrimSpace(*req.Arrival), t.ArrivalStation) {
		next.ArrivalStation = strings.TrimSpace(*req.Arrival)
		changed = true
	}

	if req.ServiceClass != nil && !strings.EqualFold(strings.TrimSpace(*req.ServiceClass), t.ServiceClass) {
		next.ServiceClass = strings.TrimSpace(*req.ServiceClass)
		classChanged = true
		changed = true
	}

	if req.TravelDate != nil && !dateOnly(*req.TravelDate).Equal(dateOnly(t.TravelDate)) {
		next.TravelDate = dateOnly(*req.TravelDate)
		changed = true
	}

	return next, classChanged, changed
}

func itinerary(departure, arrival string, travelDate time.Time, class string, train *domain.Train) domain.Itinerary {
	it := domain.Itinerary{
		Departure:    strings.TrimSpace(departure),
		Arrival:      strings.TrimSpace(arrival),
		TravelDate:   dateOnly(travelDate),
		ServiceClass: strings.TrimSpace(class),
		TrainType:    train.TrainType(),
	}

	if !train.DepartsAt.IsZero() {
		departs := train.DepartsAt
		it.DepartsAt = &departs
	}

	return it
}

func normalizeCustomer(c domain.CustomerContext) domain.CustomerContext {
	return domain.CustomerContext{
		Username: strings.TrimSpace(c.Username),
		Tier:     domain.ParseTier(string(c.Tier)),
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
