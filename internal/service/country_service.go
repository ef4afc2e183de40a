package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/geo"
	"country-atlas-service/internal/metrics"
	"country-atlas-service/internal/model"
	"country-atlas-service/internal/store"
)

const maxPageSize = 250

type CountryService interface {
	List(ctx context.Context, first int, after string) (model.CountryPage, error)
	Get(ctx context.Context, id string) (model.Country, error)
	// FindNearby returns every country ordered by ascending geodesic distance
	// from (lat, lng). A positive limit truncates the result.
	FindNearby(ctx context.Context, lat, lng float64, limit int) ([]model.NearbyCountry, error)
	ByLanguage(ctx context.Context, language string) ([]model.Country, error)
	ByField(ctx context.Context, field, value string) ([]model.Country, error)
	Create(ctx context.Context, country model.Country) (model.Country, error)
	// Edit merges patch onto the stored record, validates and persists it.
	Edit(ctx context.Context, id string, patch model.CountryPatch) (model.Country, error)
}

type countryService struct {
	store   store.CountryStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCountryService(countryStore store.CountryStore, m *metrics.Metrics, logger *zap.Logger) CountryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &countryService{
		store:   countryStore,
		metrics: m,
		logger:  logger,
	}
}

func (cs *countryService) List(ctx context.Context, first int, after string) (model.CountryPage, error) {
	if first < 0 {
		return model.CountryPage{}, apperr.InvalidArgument("first must not be negative")
	}
	if first == 0 || first > maxPageSize {
		first = maxPageSize
	}

	// One extra record tells us whether another page exists.
	countries, err := cs.store.FetchPage(ctx, after, first+1)
	if err != nil {
		return model.CountryPage{}, fmt.Errorf("failed to list countries: %w", err)
	}

	total, err := cs.store.Count(ctx)
	if err != nil {
		return model.CountryPage{}, fmt.Errorf("failed to count countries: %w", err)
	}

	page := model.CountryPage{TotalCount: total}
	if len(countries) > first {
		countries = countries[:first]
		page.HasNextPage = true
	}
	page.Countries = countries
	if len(countries) > 0 {
		page.EndCursor = countries[len(countries)-1].ID
	}
	return page, nil
}

func (cs *countryService) Get(ctx context.Context, id string) (model.Country, error) {
	if strings.TrimSpace(id) == "" {
		return model.Country{}, apperr.InvalidArgument("id is required")
	}

	country, err := cs.store.FetchByID(ctx, id)
	if err != nil {
		return model.Country{}, fmt.Errorf("failed to fetch country: %w", err)
	}
	return country, nil
}

func (cs *countryService) FindNearby(ctx context.Context, lat, lng float64, limit int) ([]model.NearbyCountry, error) {
	query := geo.Point{Lat: lat, Lng: lng}
	if err := geo.ValidatePoint(query); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, apperr.InvalidArgument("limit must not be negative")
	}

	start := time.Now()
	countries, err := cs.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}

	nearby := make([]model.NearbyCountry, 0, len(countries))
	for _, c := range countries {
		p, ok := geo.PointOf(c.Location)
		if !ok {
			cs.logger.Warn("skipping country without location", zap.String("id", c.ID), zap.String("name", c.Name))
			continue
		}
		nearby = append(nearby, model.NearbyCountry{
			Country:    c,
			DistanceKm: geo.DistanceKm(query, p),
		})
	}

	// Stable so that equal distances keep store order.
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if limit > 0 && limit < len(nearby) {
		nearby = nearby[:limit]
	}

	cs.metrics.ObserveNearby(time.Since(start), len(countries))
	cs.logger.Debug("nearby query",
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.Int("scanned", len(countries)),
		zap.Duration("took", time.Since(start)),
	)
	return nearby, nil
}

func (cs *countryService) ByLanguage(ctx context.Context, language string) ([]model.Country, error) {
	if strings.TrimSpace(language) == "" {
		return nil, apperr.InvalidArgument("language is required")
	}
	return cs.ByField(ctx, "language", language)
}

func (cs *countryService) ByField(ctx context.Context, field, value string) ([]model.Country, error) {
	countries, err := cs.store.FetchByField(ctx, field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to filter countries by %s: %w", field, err)
	}
	return countries, nil
}

func (cs *countryService) Create(ctx context.Context, country model.Country) (model.Country, error) {
	country.ID = ""
	if err := country.Validate(); err != nil {
		return model.Country{}, err
	}

	created, err := cs.store.Insert(ctx, country)
	if err != nil {
		return model.Country{}, fmt.Errorf("failed to create country: %w", err)
	}

	cs.logger.Info("country created", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (cs *countryService) Edit(ctx context.Context, id string, patch model.CountryPatch) (model.Country, error) {
	current, err := cs.Get(ctx, id)
	if err != nil {
		return model.Country{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated := current.Apply(patch)
	if err := updated.Validate(); err != nil {
		return model.Country{}, err
	}

	saved, err := cs.store.Replace(ctx, updated)
	if err != nil {
		return model.Country{}, fmt.Errorf("failed to update country: %w", err)
	}

	cs.logger.Info("country updated", zap.String("id", saved.ID))
	return saved, nil
}
