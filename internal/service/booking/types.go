package booking

import (
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/pricing"
)

type PurchaseRequest struct {
	TrainID       int64
	PassengerName string
	Departure     string
	Arrival       string
	TravelDate    time.Time
	ServiceClass  string
	Seats         int
	PromoCode     string
	Customer      domain.CustomerContext
}

type PurchaseResult struct {
	Success  bool           `json:"success"`
	TicketID string         `json:"ticket_id,omitempty"`
	Price    float64        `json:"price"`
	Ticket   *domain.Ticket `json:"ticket,omitempty"`
	Quote    *pricing.Quote `json:"quote,omitempty"`
	Message  string         `json:"message"`
	Err      error          `json:"-"`
}

// ModifyRequest carries the fields to change. A nil field keeps the stored
// value.
type ModifyRequest struct {
	TicketID     string
	Departure    *string
	Arrival      *string
	ServiceClass *string
	TravelDate   *time.Time
}

type OperationResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Price   float64 `json:"price,omitempty"`
	Err     error   `json:"-"`
}

// QuoteRequest prices an itinerary. TrainID is optional; when set the train
// supplies the train type and the departure time. Otherwise TrainType is used.
type QuoteRequest struct {
	TrainID      int64
	TrainType    string
	Departure    string
	Arrival      string
	TravelDate   time.Time
	ServiceClass string
	PromoCode    string
	Customer     domain.CustomerContext
}

type QuoteResult struct {
	Success bool           `json:"success"`
	Quote   *pricing.Quote `json:"quote,omitempty"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
}
