package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/metrics"
	"country-atlas-service/internal/model"
)

func country(name string, lat, lng float64) model.Country {
	return model.Country{
		Name:       name,
		Capital:    name + " Capital",
		Region:     "Region",
		Subregion:  "Subregion",
		Population: 10,
		Area:       1,
		NativeName: name,
		Currency:   "XXX",
		Languages:  []model.Language{{Name: "English", ISO6391: "en", ISO6392: "eng"}},
		Timezones:  []string{"UTC"},
		Location:   &model.Location{Latitude: lat, Longitude: lng},
	}
}

func newService(t *testing.T, s *fakeStore) CountryService {
	t.Helper()
	return NewCountryService(s, metrics.New(), zaptest.NewLogger(t))
}

func TestFindNearby(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("new york is closer to the united states than to france", func(t *testing.T) {
		s := (&fakeStore{}).seed(
			country("France", 48.85, 2.35),
			country("United States", 38.9, -77.0),
		)

		nearby, err := newService(t, s).FindNearby(ctx, 40.7, -74.0, 0)
		require.NoError(t, err)
		require.Len(t, nearby, 2)
		require.Equal(t, "United States", nearby[0].Name)
		require.Equal(t, "France", nearby[1].Name)
		require.InDelta(t, 325.470, nearby[0].DistanceKm, 0.01)
		require.InDelta(t, 5853.490, nearby[1].DistanceKm, 0.01)
	})

	t.Run("every record once in non-decreasing order", func(t *testing.T) {
		s := &fakeStore{}
		for i := 0; i < 60; i++ {
			lat := math.Mod(float64(i*37), 180) - 90
			lng := math.Mod(float64(i*71), 360) - 180
			s.seed(country(fmt.Sprintf("C%02d", i), lat, lng))
		}

		nearby, err := newService(t, s).FindNearby(ctx, 10, 20, 0)
		require.NoError(t, err)
		require.Len(t, nearby, 60)

		seen := map[string]bool{}
		for i, n := range nearby {
			require.False(t, seen[n.ID], "duplicate %s", n.ID)
			seen[n.ID] = true
			if i > 0 {
				require.LessOrEqual(t, nearby[i-1].DistanceKm, n.DistanceKm)
			}
		}
	})

	t.Run("ties keep store order", func(t *testing.T) {
		s := (&fakeStore{}).seed(
			country("Far", 60, 60),
			country("Twin A", 1, 1),
			country("Twin B", 1, 1),
			country("Twin C", 1, 1),
		)

		nearby, err := newService(t, s).FindNearby(ctx, 0, 0, 0)
		require.NoError(t, err)
		require.Equal(t, []string{"Twin A", "Twin B", "Twin C", "Far"}, nearbyNames(nearby))
	})

	t.Run("limit truncates", func(t *testing.T) {
		s := (&fakeStore{}).seed(
			country("A", 0, 0),
			country("B", 0, 10),
			country("C", 0, 20),
		)

		nearby, err := newService(t, s).FindNearby(ctx, 0, 0, 2)
		require.NoError(t, err)
		require.Equal(t, []string{"A", "B"}, nearbyNames(nearby))
	})

	t.Run("records without location are left out", func(t *testing.T) {
		unlocated := country("Nowhere", 0, 0)
		unlocated.Location = nil
		s := (&fakeStore{}).seed(unlocated, country("Ghana", 7.9, -1.0))

		nearby, err := newService(t, s).FindNearby(ctx, 0, 0, 0)
		require.NoError(t, err)
		require.Equal(t, []string{"Ghana"}, nearbyNames(nearby))
	})

	t.Run("empty store is not an error", func(t *testing.T) {
		nearby, err := newService(t, &fakeStore{}).FindNearby(ctx, 0, 0, 0)
		require.NoError(t, err)
		require.NotNil(t, nearby)
		require.Empty(t, nearby)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		svc := newService(t, &fakeStore{})

		_, err := svc.FindNearby(ctx, 91, 0, 0)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		_, err = svc.FindNearby(ctx, 0, 181, 0)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		_, err = svc.FindNearby(ctx, 0, 0, -1)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})

	t.Run("store unavailable propagates", func(t *testing.T) {
		s := &fakeStore{err: apperr.Unavailable("fetch all", errors.New("connection refused"))}

		_, err := newService(t, s).FindNearby(ctx, 0, 0, 0)
		require.ErrorIs(t, err, apperr.ErrUnavailable)
	})
}

func TestGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := (&fakeStore{}).seed(country("France", 48.85, 2.35))
	svc := newService(t, s)

	got, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "France", got.Name)

	_, err = svc.Get(ctx, "c404")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Get(ctx, " ")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := &fakeStore{}
	for i := 0; i < 5; i++ {
		s.seed(country(fmt.Sprintf("C%d", i), 0, 0))
	}
	svc := newService(t, s)

	page, err := svc.List(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, page.Countries, 2)
	require.True(t, page.HasNextPage)
	require.Equal(t, "c2", page.EndCursor)
	require.EqualValues(t, 5, page.TotalCount)

	page, err = svc.List(ctx, 2, "c4")
	require.NoError(t, err)
	require.Len(t, page.Countries, 1)
	require.False(t, page.HasNextPage)
	require.Equal(t, "c5", page.EndCursor)

	page, err = svc.List(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Countries, 5)
	require.False(t, page.HasNextPage)

	_, err = svc.List(ctx, -1, "")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestByLanguage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	es := country("Spain", 40.4, -3.7)
	es.Languages = []model.Language{{Name: "Spanish", ISO6391: "es", ISO6392: "spa"}}
	s := (&fakeStore{}).seed(country("France", 48.85, 2.35), es)
	svc := newService(t, s)

	got, err := svc.ByLanguage(ctx, "Spanish")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Spain", got[0].Name)

	_, err = svc.ByLanguage(ctx, "")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.ByField(ctx, "area", "1")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := &fakeStore{}
	svc := newService(t, s)

	c := country("France", 48.85, 2.35)
	c.ID = "client-chosen"
	created, err := svc.Create(ctx, c)
	require.NoError(t, err)
	require.Equal(t, "c1", created.ID)

	bad := country("Nowhere", 0, 0)
	bad.Languages = nil
	_, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	unlocated := country("Null Island", 0, 0)
	unlocated.Location = nil
	_, err = svc.Create(ctx, unlocated)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	require.ErrorContains(t, err, "location failed required")
	require.Len(t, s.countries, 1)
}

func TestEdit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown id is not found", func(t *testing.T) {
		capital := "Lyon"
		_, err := newService(t, &fakeStore{}).Edit(ctx, "c9", model.CountryPatch{Capital: &capital})
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("new capital is persisted and returned", func(t *testing.T) {
		s := (&fakeStore{}).seed(country("France", 48.85, 2.35))
		svc := newService(t, s)

		capital := "Lyon"
		updated, err := svc.Edit(ctx, "c1", model.CountryPatch{Capital: &capital})
		require.NoError(t, err)
		require.Equal(t, "Lyon", updated.Capital)
		require.Equal(t, "France", updated.Name)

		stored, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		require.Equal(t, "Lyon", stored.Capital)
	})

	t.Run("invalid merge is rejected and nothing is written", func(t *testing.T) {
		s := (&fakeStore{}).seed(country("France", 48.85, 2.35))
		svc := newService(t, s)

		population := -5
		_, err := svc.Edit(ctx, "c1", model.CountryPatch{Population: &population})
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)

		stored, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		require.Equal(t, 10, stored.Population)
	})

	t.Run("empty patch returns the record unchanged", func(t *testing.T) {
		s := (&fakeStore{}).seed(country("France", 48.85, 2.35))

		got, err := newService(t, s).Edit(ctx, "c1", model.CountryPatch{})
		require.NoError(t, err)
		require.Equal(t, "France Capital", got.Capital)
	})
}

func nearbyNames(nearby []model.NearbyCountry) []string {
	out := make([]string, 0, len(nearby))
	for _, n := range nearby {
		out = append(out, n.Name)
	}
	return out
}
