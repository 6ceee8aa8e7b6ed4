package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/ledger"
	"github.com/kirinyoku/railtix/internal/pricing"
	"github.com/kirinyoku/railtix/internal/promotion"
	"github.com/kirinyoku/railtix/internal/repository"
	memoryrepo "github.com/kirinyoku/railtix/internal/repository/memory"
)

var (
	fixedNow  = time.Date(2024, time.July, 1, 9, 30, 0, 0, time.UTC)
	travelDay = time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
)

type pricerFunc func(it domain.Itinerary, code string, c domain.CustomerContext) (pricing.Quote, error)

func (f pricerFunc) Price(_ context.Context, it domain.Itinerary, code string, c domain.CustomerContext) (pricing.Quote, error) {
	return f(it, code, c)
}

// classPricer charges a fixed fare per service class.
func classPricer(fares map[string]float64) pricerFunc {
	return func(it domain.Itinerary, _ string, c domain.CustomerContext) (pricing.Quote, error) {
		p := fares[it.ServiceClass]
		return pricing.Quote{Tier: c.Tier, BaseFare: p, Price: p}, nil
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	trains []int64
}

func (p *recordingPublisher) PublishTrainChanged(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trains = append(p.trains, id)
	return nil
}

func (p *recordingPublisher) published() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.trains...)
}

type failingAdd struct {
	*memoryrepo.TicketRepo
}

func (failingAdd) Add(context.Context, domain.Ticket) error { return errors.New("disk full") }

type fixture struct {
	svc    *Service
	store  *memoryrepo.Store
	seats  *ledger.Ledger
	events *recordingPublisher
}

type fixtureOpts struct {
	pricer   Pricer
	capacity int
	tickets  repository.TicketRepository
}

func newFixture(t *testing.T, o fixtureOpts) *fixture {
	t.Helper()

	ctx := context.Background()
	store := memoryrepo.NewStore()

	require.NoError(t, store.Trains().Add(ctx, domain.Train{
		ID: 1, Name: "Regionale 2231", DepartureStation: "Roma", ArrivalStation: "Milano",
		DepartsAt: time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Trains().Add(ctx, domain.Train{
		ID: 2, Name: "Frecciarossa 9521", DepartureStation: "Roma", ArrivalStation: "Milano",
		DepartsAt: time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC),
	}))

	if o.pricer == nil {
		network := fare.NewNetwork(nil, []domain.DistanceEntry{{From: "Roma", To: "Milano", Km: 570}})
		o.pricer = pricing.NewSelector(
			fare.New(network, fare.Config{}),
			promotion.NewEngine(),
			store.Promotions(),
			pricing.Config{},
		)
	}

	if o.tickets == nil {
		o.tickets = store.Tickets()
	}

	seats := ledger.New(o.capacity)
	events := &recordingPublisher{}

	svc := New(Deps{
		Tickets: o.tickets,
		Trains:  store.Trains(),
		Seats:   seats,
		Pricer:  o.pricer,
		Tx:      store,
		Events:  events,
	}, Config{Now: func() time.Time { return fixedNow }})

	return &fixture{svc: svc, store: store, seats: seats, events: events}
}

func (f *fixture) available(t *testing.T, trainID int64) int {
	t.Helper()
	n, err := f.seats.Available(context.Background(), trainID)
	require.NoError(t, err)
	return n
}

func (f *fixture) ticketCount(t *testing.T) int {
	t.Helper()
	all, err := f.store.Tickets().ListAll(context.Background())
	require.NoError(t, err)
	return len(all)
}

func purchaseReq() PurchaseRequest {
	return PurchaseRequest{
		TrainID:       1,
		PassengerName: "Mario Rossi",
		Departure:     "Roma",
		Arrival:       "Milano",
		TravelDate:    travelDay,
		ServiceClass:  "Seconda Classe",
		Seats:         2,
		Customer:      domain.CustomerContext{Username: "mario"},
	}
}

func TestPurchase(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	res, err := f.svc.Purchase(ctx, purchaseReq())
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.NoError(t, res.Err)
	assert.Equal(t, 85.50, res.Price)
	assert.NotEmpty(t, res.TicketID)

	stored, err := f.store.Tickets().GetByID(ctx, res.TicketID)
	require.NoError(t, err)
	assert.Equal(t, *res.Ticket, *stored)
	assert.Equal(t, 2, stored.SeatCount)
	assert.Equal(t, domain.TierStandard, stored.Tier)
	assert.Equal(t, "mario", stored.Username)
	assert.Equal(t, fixedNow, stored.CreatedAt)

	assert.Equal(t, ledger.DefaultCapacity-2, f.available(t, 1))
	assert.Equal(t, []int64{1}, f.events.published())
}

func TestPurchase_PremiumTrainAndPromotion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	req := purchaseReq()
	req.TrainID = 2
	res, err := f.svc.Purchase(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 128.25, res.Price)

	summerFrom := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	summerTo := time.Date(2024, time.August, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.Promotions().Add(ctx, domain.Promotion{
		ID:              "estate",
		Name:            "ESTATE2024",
		DiscountPercent: 15,
		RouteNames:      []string{"Roma-Milano"},
		ValidFrom:       &summerFrom,
		ValidTo:         &summerTo,
	}))

	req = purchaseReq()
	req.PromoCode = "ESTATE2024"
	res, err = f.svc.Purchase(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 72.68, res.Price)
	assert.Equal(t, "ESTATE2024", res.Ticket.PromoCode)
	require.NotNil(t, res.Quote.Promotion)
	assert.Equal(t, "estate", res.Quote.Promotion.ID)
}

func TestPurchase_DefaultsToOneSeat(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})

	req := purchaseReq()
	req.Seats = 0
	res, err := f.svc.Purchase(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Ticket.SeatCount)
	assert.Equal(t, ledger.DefaultCapacity-1, f.available(t, 1))
}

func TestPurchase_Validation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate func(*PurchaseRequest)
		field  string
	}{
		"train id":      {func(r *PurchaseRequest) { r.TrainID = 0 }, "train_id"},
		"passenger":     {func(r *PurchaseRequest) { r.PassengerName = "  " }, "passenger_name"},
		"departure":     {func(r *PurchaseRequest) { r.Departure = "" }, "departure_station"},
		"arrival":       {func(r *PurchaseRequest) { r.Arrival = "" }, "arrival_station"},
		"travel date":   {func(r *PurchaseRequest) { r.TravelDate = time.Time{} }, "travel_date"},
		"service class": {func(r *PurchaseRequest) { r.ServiceClass = "" }, "service_class"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fixtureOpts{})
			req := purchaseReq()
			tt.mutate(&req)

			res, err := f.svc.Purchase(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.ErrorIs(t, res.Err, domain.ErrValidation)

			var ve domain.ValidationError
			require.ErrorAs(t, res.Err, &ve)
			assert.Equal(t, tt.field, ve.Field)

			assert.Equal(t, 0, f.ticketCount(t))
			assert.Equal(t, ledger.DefaultCapacity, f.available(t, 1))
		})
	}
}

func TestPurchase_UnknownTrain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})

	req := purchaseReq()
	req.TrainID = 99
	res, err := f.svc.Purchase(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
	assert.Equal(t, ledger.DefaultCapacity, f.available(t, 99))
	assert.Empty(t, f.events.published())
}

func TestPurchase_CapacityLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{capacity: 3})

	req := purchaseReq()
	req.Seats = 4
	res, err := f.svc.Purchase(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrCapacity)

	var ce domain.CapacityError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, 4, ce.Requested)
	assert.Equal(t, 3, ce.Available)

	assert.Equal(t, 3, f.available(t, 1))
	assert.Equal(t, 0, f.ticketCount(t))
	assert.Empty(t, f.events.published())
}

// unreachableLedger refuses every reservation and cannot report availability.
type unreachableLedger struct{ err error }

func (l unreachableLedger) Available(context.Context, int64) (int, error)     { return 0, l.err }
func (l unreachableLedger) Reserve(context.Context, int64, int) (bool, error) { return false, nil }
func (l unreachableLedger) Release(context.Context, int64, int) error         { return nil }
func (l unreachableLedger) Capacity() int                                     { return 0 }

func TestPurchase_AvailabilityFailureIsInternal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	boom := errors.New("ledger unreachable")
	svc := New(Deps{
		Tickets: f.store.Tickets(),
		Trains:  f.store.Trains(),
		Seats:   unreachableLedger{err: boom},
		Pricer:  classPricer(map[string]float64{"Seconda Classe": 50}),
		Tx:      f.store,
	}, Config{Now: func() time.Time { return fixedNow }})

	res, err := svc.Purchase(context.Background(), purchaseReq())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrCapacity)
	assert.False(t, res.Success)
	assert.Equal(t, 0, f.ticketCount(t))
}

func TestPurchase_PricingFailureReleasesSeats(t *testing.T) {
	t.Parallel()

	boom := errors.New("pricing exploded")
	f := newFixture(t, fixtureOpts{pricer: pricerFunc(
		func(domain.Itinerary, string, domain.CustomerContext) (pricing.Quote, error) {
			return pricing.Quote{}, boom
		},
	)})

	res, err := f.svc.Purchase(context.Background(), purchaseReq())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Success)

	assert.Equal(t, ledger.DefaultCapacity, f.available(t, 1))
	assert.Equal(t, 0, f.ticketCount(t))
	assert.Empty(t, f.events.published())
}

func TestPurchase_PersistFailureReleasesSeats(t *testing.T) {
	t.Parallel()

	store := memoryrepo.NewStore()
	f := newFixture(t, fixtureOpts{tickets: failingAdd{store.Tickets()}})

	res, err := f.svc.Purchase(context.Background(), purchaseReq())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.False(t, res.Success)
	assert.Equal(t, ledger.DefaultCapacity, f.available(t, 1))
}

func TestPurchase_ConcurrentNeverOversells(t *testing.T) {
	t.Parallel()

	const capacity = 10
	f := newFixture(t, fixtureOpts{capacity: capacity})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 3*capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := purchaseReq()
			req.Seats = 1
			res, err := f.svc.Purchase(context.Background(), req)
			if err == nil && res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, successes)
	assert.Equal(t, 0, f.available(t, 1))
	assert.Equal(t, capacity, f.ticketCount(t))
}

func TestModify_ClassChangeAddsPenalty(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{pricer: classPricer(map[string]float64{
		"Seconda Classe": 100,
		"Prima Classe":   120,
	})})
	ctx := context.Background()

	bought, err := f.svc.Purchase(ctx, purchaseReq())
	require.NoError(t, err)
	require.True(t, bought.Success)

	class := "Prima Classe"
	res, err := f.svc.Modify(ctx, ModifyRequest{TicketID: bought.TicketID, ServiceClass: &class})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 125.0, res.Price)
	assert.Contains(t, res.Message, "penalty")

	stored, err := f.store.Tickets().GetByID(ctx, bought.TicketID)
	require.NoError(t, err)
	assert.Equal(t, 125.0, stored.Price)
	assert.Equal(t, "Prima Classe", stored.ServiceClass)
	assert.Equal(t, bought.TicketID, stored.ID)
	assert.Equal(t, 2, stored.SeatCount)
}

func TestModify_Reconciliation(t *testing.T) {
	t.Parallel()

	fares := map[string]float64{"Seconda Classe": 100}
	routeFares := map[string]float64{"Roma-Milano": 100, "Roma-Torino": 130, "Roma-Napoli": 40}

	pricer := pricerFunc(func(it domain.Itinerary, _ string, c domain.CustomerContext) (pricing.Quote, error) {
		p := routeFares[it.Route()]
		if p == 0 {
			p = fares[it.ServiceClass]
		}
		return pricing.Quote{Tier: c.Tier, BaseFare: p, Price: p}, nil
	})

	f := newFixture(t, fixtureOpts{pricer: pricer})
	ctx := context.Background()

	bought, err := f.svc.Purchase(ctx, purchaseReq())
	require.NoError(t, err)
	require.Equal(t, 100.0, bought.Price)

	torino := "Torino"
	res, err := f.svc.Modify(ctx, ModifyRequest{TicketID: bought.TicketID, Arrival: &torino})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 130.0, res.Price)
	assert.Contains(t, res.Message, "30.00")

	napoli := "Napoli"
	res, err = f.svc.Modify(ctx, ModifyRequest{TicketID: bought.TicketID, Arrival: &napoli})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 40.0, res.Price, "a lower fare is charged as is")
	assert.Contains(t, res.Message, "no refund")

	stored, _ := f.store.Tickets().GetByID(ctx, bought.TicketID)
	assert.Equal(t, "Napoli", stored.ArrivalStation)
	assert.Equal(t, fixedNow, stored.UpdatedAt)
}

func TestModify_NoChange(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	bought, err := f.svc.Purchase(ctx, purchaseReq())
	require.NoError(t, err)

	same := "seconda classe"
	day := travelDay.Add(10 * time.Hour)
	res, err := f.svc.Modify(ctx, ModifyRequest{TicketID: bought.TicketID, ServiceClass: &same, TravelDate: &day})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrNoChange)
	assert.Equal(t, "no modification made", res.Message)

	res, err = f.svc.Modify(ctx, ModifyRequest{TicketID: bought.TicketID})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrNoChange)
}

func TestModify_Failures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	class := "Prima Classe"
	res, err := f.svc.Modify(ctx, ModifyRequest{TicketID: "missing", ServiceClass: &class})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)

	blankClass := " "
	res, err = f.svc.Modify(ctx, ModifyRequest{TicketID: "missing", ServiceClass: &blankClass})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrValidation)

	res, err = f.svc.Modify(ctx, ModifyRequest{})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrValidation)
}

func TestCancel_RestoresSeats(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	before := f.available(t, 1)

	bought, err := f.svc.Purchase(ctx, purchaseReq())
	require.NoError(t, err)
	require.True(t, bought.Success)
	require.Equal(t, before-2, f.available(t, 1))

	res, err := f.svc.Cancel(ctx, bought.TicketID)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, before, f.available(t, 1))
	assert.Equal(t, 0, f.ticketCount(t))
	assert.Equal(t, []int64{1, 1}, f.events.published())

	res, err = f.svc.Cancel(ctx, bought.TicketID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
	assert.Equal(t, before, f.available(t, 1))

	res, err = f.svc.Cancel(ctx, "")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrValidation)
}

func TestQuote_HasNoSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	req := QuoteRequest{
		TrainID:      2,
		Departure:    "Roma",
		Arrival:      "Milano",
		TravelDate:   travelDay,
		ServiceClass: "Seconda Classe",
	}

	for i := 0; i < 3; i++ {
		res, err := f.svc.Quote(ctx, req)
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, 128.25, res.Quote.Price)
	}

	assert.Equal(t, ledger.DefaultCapacity, f.available(t, 2))
	assert.Equal(t, 0, f.ticketCount(t))
	assert.Empty(t, f.events.published())

	req.TrainID = 0
	req.TrainType = "Regionale"
	res, err := f.svc.Quote(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 85.50, res.Quote.Price)

	req.TrainID = 42
	res, err = f.svc.Quote(ctx, req)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)

	req.TrainID = 0
	req.ServiceClass = ""
	res, err = f.svc.Quote(ctx, req)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrValidation)
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	for _, train := range []int64{1, 1, 2} {
		req := purchaseReq()
		req.TrainID = train
		res, err := f.svc.Purchase(ctx, req)
		require.NoError(t, err)
		require.True(t, res.Success)
	}
	require.Equal(t, ledger.DefaultCapacity-4, f.available(t, 1))

	n, err := f.svc.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, f.ticketCount(t))
	assert.Equal(t, ledger.DefaultCapacity, f.available(t, 1))
	assert.Equal(t, ledger.DefaultCapacity, f.available(t, 2))

	n, err = f.svc.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
