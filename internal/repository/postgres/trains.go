package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/railtix/internal/domain"
)

type TrainRepo struct {
	pool *pgxpool.Pool
}

func scanTrain(row pgx.Row) (domain.Train, error) {
	var t domain.Train
	err := row.Scan(&t.ID, &t.Name, &t.Type, &t.DepartureStation, &t.ArrivalStation, &t.DepartsAt, &t.ArrivesAt)
	return t, err
}

// GetByID retrieves a train by its ID.
//
// Returns:
//   - *domain.Train: the train when found.
//   - error: repository.ErrNotFound if the train does not exist.
func (r *TrainRepo) GetByID(ctx context.Context, id int64) (*domain.Train, error) {
	const op = "postgresrepo.TrainRepo.GetByID"

	db := handle(ctx, r.pool)

	t, err := scanTrain(db.QueryRow(ctx,
		`SELECT id, name, type, departure_station, arrival_station, departs_at, arrives_at
		 FROM trains WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *TrainRepo) ListAll(ctx context.Context) ([]domain.Train, error) {
	const op = "postgresrepo.TrainRepo.ListAll"

	db := handle(ctx, r.pool)

	rows, err := db.Query(ctx,
		`SELECT id, name, type, departure_station, arrival_station, departs_at, arrives_at
		 FROM trains
		 ORDER BY id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Train, error) {
		return scanTrain(row)
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Add inserts a train.
//
// Returns:
//   - error: repository.ErrConflict if the id is taken.
func (r *TrainRepo) Add(ctx context.Context, t domain.Train) error {
	const op = "postgresrepo.TrainRepo.Add"

	db := handle(ctx, r.pool)

	_, err := db.Exec(ctx,
		`INSERT INTO trains(id, name, type, departure_station, arrival_station, departs_at, arrives_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Type, t.DepartureStation, t.ArrivalStation, t.DepartsAt, t.ArrivesAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
