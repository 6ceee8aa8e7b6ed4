package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
}

const ticketColumns = `id, train_id, passenger_name, username, departure_station, arrival_station,
	travel_date, service_class, tier, promo_code, price, seat_count, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t    domain.Ticket
		tier string
	)
	err := row.Scan(
		&t.ID, &t.TrainID, &t.PassengerName, &t.Username, &t.DepartureStation, &t.ArrivalStation,
		&t.TravelDate, &t.ServiceClass, &tier, &t.PromoCode, &t.Price, &t.SeatCount,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Tier = domain.ParseTier(tier)

	return &t, nil
}

// GetByID retrieves a ticket by its ID.
//
// Parameters:
//   - ctx: request-scoped context; an active transaction on it is joined.
//   - id: ticket identifier.
//
// Returns:
//   - *domain.Ticket: the ticket when found.
//   - error: repository.ErrNotFound if the ticket does not exist.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.GetByID"

	db := handle(ctx, r.pool)

	t, err := scanTicket(db.QueryRow(ctx,
		`SELECT `+ticketColumns+`
		 FROM tickets WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return t, nil
}

func (r *TicketRepo) Add(ctx context.Context, t domain.Ticket) error {
	const op = "postgresrepo.TicketRepo.Add"

	db := handle(ctx, r.pool)

	_, err := db.Exec(ctx,
		`INSERT INTO tickets(`+ticketColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.TrainID, t.PassengerName, t.Username, t.DepartureStation, t.ArrivalStation,
		t.TravelDate, t.ServiceClass, string(t.Tier), t.PromoCode, t.Price, t.SeatCount,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Replace overwrites every mutable column of an existing ticket.
//
// Returns:
//   - error: repository.ErrNotFound if the ticket does not exist.
func (r *TicketRepo) Replace(ctx context.Context, t domain.Ticket) error {
	const op = "postgresrepo.TicketRepo.Replace"

	db := handle(ctx, r.pool)

	tag, err := db.Exec(ctx,
		`UPDATE tickets
		 SET train_id = $2, passenger_name = $3, username = $4, departure_station = $5,
		     arrival_station = $6, travel_date = $7, service_class = $8, tier = $9,
		     promo_code = $10, price = $11, seat_count = $12, updated_at = $13
		 WHERE id = $1`,
		t.ID, t.TrainID, t.PassengerName, t.Username, t.DepartureStation,
		t.ArrivalStation, t.TravelDate, t.ServiceClass, string(t.Tier),
		t.PromoCode, t.Price, t.SeatCount, t.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) DeleteByID(ctx context.Context, id string) error {
	const op = "postgresrepo.TicketRepo.DeleteByID"

	db := handle(ctx, r.pool)

	tag, err := db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ListAll returns tickets oldest first.
func (r *TicketRepo) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.ListAll"

	db := handle(ctx, r.pool)

	rows, err := db.Query(ctx,
		`SELECT `+ticketColumns+`
		 FROM tickets
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
