package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"country-atlas-service/internal/config"
	"country-atlas-service/internal/model"
)

// CountryStore is the persistence boundary for country records. Implementations
// wrap connectivity failures in apperr.ErrUnavailable and report absent ids as
// apperr.ErrNotFound.
type CountryStore interface {
	// FetchAll returns every record in insertion order.
	FetchAll(ctx context.Context) ([]model.Country, error)
	// FetchPage returns up to limit records following the record with id after.
	// An empty after starts from the beginning.
	FetchPage(ctx context.Context, after string, limit int) ([]model.Country, error)
	FetchByID(ctx context.Context, id string) (model.Country, error)
	FetchByField(ctx context.Context, field, value string) ([]model.Country, error)
	Insert(ctx context.Context, country model.Country) (model.Country, error)
	InsertMany(ctx context.Context, countries []model.Country) (int, error)
	// Replace overwrites the stored record with the same id.
	Replace(ctx context.Context, country model.Country) (model.Country, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (CountryStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return NewMongoStore(ctx, MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			Logger:     logger,
		})
	case config.DriverRedis:
		return NewRedisStore(ctx, RedisOptions{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
