package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/railtix/internal/domain"
)

type StationRepo struct {
	pool *pgxpool.Pool
}

func (r *StationRepo) ListStations(ctx context.Context) ([]domain.Station, error) {
	const op = "postgresrepo.StationRepo.ListStations"

	db := handle(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT name, latitude, longitude FROM stations ORDER BY name`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Station, error) {
		var s domain.Station
		err := row.Scan(&s.Name, &s.Latitude, &s.Longitude)
		return s, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *StationRepo) ListDistances(ctx context.Context) ([]domain.DistanceEntry, error) {
	const op = "postgresrepo.StationRepo.ListDistances"

	db := handle(ctx, r.pool)

	rows, err := db.Query(ctx,
		`SELECT from_station, to_station, km
		 FROM station_distances
		 ORDER BY from_station, to_station`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DistanceEntry, error) {
		var d domain.DistanceEntry
		err := row.Scan(&d.From, &d.To, &d.Km)
		return d, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// UpsertStations writes stations in one batch; names match case-insensitively.
func (r *StationRepo) UpsertStations(ctx context.Context, stations []domain.Station) error {
	const op = "postgresrepo.StationRepo.UpsertStations"

	db := handle(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, s := range stations {
		batch.Queue(
			`INSERT INTO stations(name, latitude, longitude)
			 VALUES ($1, $2, $3)
			 ON CONFLICT ((lower(name)))
			 DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`,
			s.Name, s.Latitude, s.Longitude,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *StationRepo) UpsertDistances(ctx context.Context, distances []domain.DistanceEntry) error {
	const op = "postgresrepo.StationRepo.UpsertDistances"

	db := handle(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, d := range distances {
		batch.Queue(
			`INSERT INTO station_distances(from_station, to_station, km)
			 VALUES ($1, $2, $3)
			 ON CONFLICT ((lower(from_station)), (lower(to_station)))
			 DO UPDATE SET km = EXCLUDED.km`,
			d.From, d.To, d.Km,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
