package memoryrepo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

type StationRepo struct {
	mu        sync.RWMutex
	stations  []domain.Station
	distances []domain.DistanceEntry
}

func NewStationRepo() *StationRepo {
	return &StationRepo{}
}

func (r *StationRepo) ListStations(_ context.Context) ([]domain.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.stations), nil
}

func (r *StationRepo) ListDistances(_ context.Context) ([]domain.DistanceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.distances), nil
}

// UpsertStations replaces stations with the same name, case-insensitively.
func (r *StationRepo) UpsertStations(_ context.Context, stations []domain.Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range stations {
		idx := slices.IndexFunc(r.stations, func(x domain.Station) bool {
			return strings.EqualFold(x.Name, s.Name)
		})
		if idx >= 0 {
			r.stations[idx] = s
			continue
		}
		r.stations = append(r.stations, s)
	}

	return nil
}

// UpsertDistances replaces entries for the same ordered station pair.
func (r *StationRepo) UpsertDistances(_ context.Context, distances []domain.DistanceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range distances {
		idx := slices.IndexFunc(r.distances, func(x domain.DistanceEntry) bool {
			return strings.EqualFold(x.From, d.From) && strings.EqualFold(x.To, d.To)
		})
		if idx >= 0 {
			r.distances[idx] = d
			continue
		}
		r.distances = append(r.distances, d)
	}

	return nil
}

type TrainRepo struct {
	mu     sync.RWMutex
	trains map[int64]domain.Train
}

func NewTrainRepo() *TrainRepo {
	return &TrainRepo{trains: make(map[int64]domain.Train)}
}

func (r *TrainRepo) GetByID(_ context.Context, id int64) (*domain.Train, error) {
	const op = "memoryrepo.TrainRepo.GetByID"

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trains[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return &t, nil
}

func (r *TrainRepo) ListAll(_ context.Context) ([]domain.Train, error) {
	r.mu.RLock()
	out := make([]domain.Train, 0, len(r.trains))
	for _, t := range r.trains {
		out = append(out, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Train) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	return out, nil
}

func (r *TrainRepo) Add(_ context.Context, t domain.Train) error {
	const op = "memoryrepo.TrainRepo.Add"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trains[t.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}
	r.trains[t.ID] = t

	return nil
}
