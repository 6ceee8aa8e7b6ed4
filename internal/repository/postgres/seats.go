package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/railtix/internal/ledger"
)

// SeatRepo is the Postgres seat ledger. Rows in train_seats are created on
// first touch with the configured capacity.
type SeatRepo struct {
	pool     *pgxpool.Pool
	capacity int
}

func (r *SeatRepo) Capacity() int {
	if r.capacity <= 0 {
		return ledger.DefaultCapacity
	}
	return r.capacity
}

func (r *SeatRepo) ensure(ctx context.Context, db DB, trainID int64) error {
	_, err := db.Exec(ctx,
		`INSERT INTO train_seats(train_id, available)
		 VALUES ($1, $2)
		 ON CONFLICT (train_id) DO NOTHING`,
		trainID, r.Capacity(),
	)
	return err
}

func (r *SeatRepo) Available(ctx context.Context, trainID int64) (int, error) {
	const op = "postgresrepo.SeatRepo.Available"

	db := handle(ctx, r.pool)

	if err := r.ensure(ctx, db, trainID); err != nil {
		return 0, wrapDBErr(op, err)
	}

	var available int
	if err := db.QueryRow(ctx,
		`SELECT available FROM train_seats WHERE train_id = $1`,
		trainID,
	).Scan(&available); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return available, nil
}

// Reserve decrements the counter only when enough seats remain; the check
// and the decrement are one statement.
//
// Returns:
//   - bool: false when fewer than seats are available.
func (r *SeatRepo) Reserve(ctx context.Context, trainID int64, seats int) (bool, error) {
	const op = "postgresrepo.SeatRepo.Reserve"

	if seats <= 0 {
		return true, nil
	}

	db := handle(ctx, r.pool)

	if err := r.ensure(ctx, db, trainID); err != nil {
		return false, wrapDBErr(op, err)
	}

	tag, err := db.Exec(ctx,
		`UPDATE train_seats
		 SET available = available - $2
		 WHERE train_id = $1 AND available >= $2`,
		trainID, seats,
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() == 1, nil
}

// Release returns seats, never raising the counter above capacity.
func (r *SeatRepo) Release(ctx context.Context, trainID int64, seats int) error {
	const op = "postgresrepo.SeatRepo.Release"

	if seats <= 0 {
		return nil
	}

	db := handle(ctx, r.pool)

	if err := r.ensure(ctx, db, trainID); err != nil {
		return wrapDBErr(op, err)
	}

	if _, err := db.Exec(ctx,
		`UPDATE train_seats
		 SET available = LEAST(available + $2, $3)
		 WHERE train_id = $1`,
		trainID, seats, r.Capacity(),
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// JoinsTransactions reports that ledger writes roll back with the unit of work.
func (r *SeatRepo) JoinsTransactions() bool { return true }
