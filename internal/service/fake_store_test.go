package service

import (
	"context"
	"fmt"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/model"
)

// fakeStore is an in-memory CountryStore. When err is set every call fails with it.
type fakeStore struct {
	countries []model.Country
	nextID    int
	err       error
}

func (f *fakeStore) seed(countries ...model.Country) *fakeStore {
	for _, c := range countries {
		_, _ = f.Insert(context.Background(), c)
	}
	return f
}

func (f *fakeStore) FetchAll(_ context.Context) ([]model.Country, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Country, 0, len(f.countries))
	for _, c := range f.countries {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (f *fakeStore) FetchPage(ctx context.Context, after string, limit int) ([]model.Country, error) {
	all, err := f.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	start := 0
	if after != "" {
		start = -1
		for i, c := range all {
			if c.ID == after {
				start = i + 1
			}
		}
		if start < 0 {
			return nil, apperr.InvalidArgument("unknown cursor %q", after)
		}
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return all[start:end], nil
}

func (f *fakeStore) FetchByID(_ context.Context, id string) (model.Country, error) {
	if f.err != nil {
		return model.Country{}, f.err
	}
	for _, c := range f.countries {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return model.Country{}, apperr.NotFound("country %s", id)
}

func (f *fakeStore) FetchByField(ctx context.Context, field, value string) ([]model.Country, error) {
	all, err := f.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Country, 0)
	for _, c := range all {
		ok, err := c.MatchesField(field, value)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, c model.Country) (model.Country, error) {
	if f.err != nil {
		return model.Country{}, f.err
	}
	f.nextID++
	c.ID = fmt.Sprintf("c%d", f.nextID)
	f.countries = append(f.countries, c.Clone())
	return c, nil
}

func (f *fakeStore) InsertMany(ctx context.Context, countries []model.Country) (int, error) {
	for i, c := range countries {
		if _, err := f.Insert(ctx, c); err != nil {
			return i, err
		}
	}
	return len(countries), nil
}

func (f *fakeStore) Replace(_ context.Context, c model.Country) (model.Country, error) {
	if f.err != nil {
		return model.Country{}, f.err
	}
	for i := range f.countries {
		if f.countries[i].ID == c.ID {
			f.countries[i] = c.Clone()
			return c, nil
		}
	}
	return model.Country{}, apperr.NotFound("country %s", c.ID)
}

func (f *fakeStore) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.countries)), nil
}

func (f *fakeStore) Clear(_ context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.countries = nil
	return nil
}

func (f *fakeStore) Close(_ context.Context) error { return nil }
