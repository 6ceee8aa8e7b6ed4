package memoryrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

func TestTicketRepo_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewTicketRepo()

	now := time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)
	a := domain.Ticket{ID: "a", TrainID: 1, Price: 10, CreatedAt: now.Add(time.Minute)}
	b := domain.Ticket{ID: "b", TrainID: 1, Price: 20, CreatedAt: now}

	require.NoError(t, r.Add(ctx, a))
	require.NoError(t, r.Add(ctx, b))
	assert.ErrorIs(t, r.Add(ctx, a), repository.ErrConflict)

	got, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Price)

	a.Price = 15
	require.NoError(t, r.Replace(ctx, a))
	got, _ = r.GetByID(ctx, "a")
	assert.Equal(t, 15.0, got.Price)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "oldest first")

	require.NoError(t, r.DeleteByID(ctx, "a"))
	_, err = r.GetByID(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.DeleteByID(ctx, "a"), repository.ErrNotFound)
	assert.ErrorIs(t, r.Replace(ctx, a), repository.ErrNotFound)
}

func TestTicketRepo_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewTicketRepo()
	require.NoError(t, r.Add(ctx, domain.Ticket{ID: "x", Price: 1}))

	got, _ := r.GetByID(ctx, "x")
	got.Price = 99

	again, _ := r.GetByID(ctx, "x")
	assert.Equal(t, 1.0, again.Price)
}

func TestPromotionRepo_OrderAndSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewPromotionRepo()

	for _, id := range []string{"one", "two", "three"} {
		require.NoError(t, r.Add(ctx, domain.Promotion{ID: id, Name: id}))
	}
	assert.ErrorIs(t, r.Add(ctx, domain.Promotion{ID: "TWO"}), repository.ErrConflict)

	before, err := r.ListAll(ctx)
	require.NoError(t, err)

	require.NoError(t, r.DeleteByID(ctx, "two"))
	assert.ErrorIs(t, r.DeleteByID(ctx, "two"), repository.ErrNotFound)

	after, _ := r.ListAll(ctx)
	assert.Len(t, before, 3, "earlier snapshots are unaffected")
	require.Len(t, after, 2)
	assert.Equal(t, "one", after[0].ID)
	assert.Equal(t, "three", after[1].ID)
}

func TestStationRepo_Upsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewStationRepo()

	require.NoError(t, r.UpsertStations(ctx, []domain.Station{{Name: "Roma", Latitude: 1}}))
	require.NoError(t, r.UpsertStations(ctx, []domain.Station{{Name: "roma", Latitude: 2}, {Name: "Milano"}}))

	stations, _ := r.ListStations(ctx)
	require.Len(t, stations, 2)
	assert.Equal(t, 2.0, stations[0].Latitude)

	require.NoError(t, r.UpsertDistances(ctx, []domain.DistanceEntry{{From: "Roma", To: "Milano", Km: 500}}))
	require.NoError(t, r.UpsertDistances(ctx, []domain.DistanceEntry{{From: "ROMA", To: "milano", Km: 570}}))
	distances, _ := r.ListDistances(ctx)
	require.Len(t, distances, 1)
	assert.Equal(t, 570.0, distances[0].Km)
}

func TestTrainRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewTrainRepo()

	require.NoError(t, r.Add(ctx, domain.Train{ID: 2, Name: "Italo 8901"}))
	require.NoError(t, r.Add(ctx, domain.Train{ID: 1, Name: "Frecciarossa 9521"}))
	assert.ErrorIs(t, r.Add(ctx, domain.Train{ID: 1}), repository.ErrConflict)

	tr, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Frecciarossa", tr.TrainType())

	_, err = r.GetByID(ctx, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, _ := r.ListAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
}

func TestStore_RunTx(t *testing.T) {
	t.Parallel()

	s := NewStore()
	boom := errors.New("boom")

	err := s.RunTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	called := false
	require.NoError(t, s.RunTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}
