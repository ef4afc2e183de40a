package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/model"
)

const (
	redisOrderKey   = "countries:order"
	redisBatchSize  = 1000
	redisCountryKey = "country:%s"
)

type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Logger   *zap.Logger
}

// RedisStore keeps each country as a JSON string under country:<id> and the
// insertion order in the countries:order list.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Verify Redis connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperr.Unavailable("connect to redis", err)
	}

	return NewRedisStoreFromClient(client, opts.Logger), nil
}

func NewRedisStoreFromClient(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		logger: logger.With(zap.String("store", "redis")),
	}
}

func countryKey(id string) string {
	return fmt.Sprintf(redisCountryKey, id)
}

func (s *RedisStore) FetchAll(ctx context.Context) ([]model.Country, error) {
	ids, err := s.client.LRange(ctx, redisOrderKey, 0, -1).Result()
	if err != nil {
		return nil, apperr.Unavailable("fetch all", err)
	}
	return s.load(ctx, ids)
}

func (s *RedisStore) FetchPage(ctx context.Context, after string, limit int) ([]model.Country, error) {
	ids, err := s.client.LRange(ctx, redisOrderKey, 0, -1).Result()
	if err != nil {
		return nil, apperr.Unavailable("fetch page", err)
	}

	start := 0
	if after != "" {
		start = -1
		for i, id := range ids {
			if id == after {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, apperr.InvalidArgument("unknown cursor %q", after)
		}
	}

	end := len(ids)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return s.load(ctx, ids[start:end])
}

// load resolves ids to countries in the given order, skipping ids whose
// document has disappeared.
func (s *RedisStore) load(ctx context.Context, ids []string) ([]model.Country, error) {
	countries := make([]model.Country, 0, len(ids))

	for start := 0; start < len(ids); start += redisBatchSize {
		end := start + redisBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, countryKey(id))
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, apperr.Unavailable("load countries", err)
		}

		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				s.logger.Warn("dangling id in order list", zap.String("id", ids[start+i]))
				continue
			}
			var country model.Country
			if err := json.Unmarshal([]byte(raw), &country); err != nil {
				return nil, fmt.Errorf("failed to unmarshal country %s: %w", ids[start+i], err)
			}
			countries = append(countries, country)
		}
	}

	return countries, nil
}

func (s *RedisStore) FetchByID(ctx context.Context, id string) (model.Country, error) {
	raw, err := s.client.Get(ctx, countryKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Country{}, apperr.NotFound("country %s", id)
	}
	if err != nil {
		return model.Country{}, apperr.Unavailable("fetch by id", err)
	}

	var country model.Country
	if err := json.Unmarshal([]byte(raw), &country); err != nil {
		return model.Country{}, fmt.Errorf("failed to unmarshal country %s: %w", id, err)
	}
	return country, nil
}

// FetchByField scans the collection; the data set is small enough that a
// secondary index is not worth maintaining.
func (s *RedisStore) FetchByField(ctx context.Context, field, value string) ([]model.Country, error) {
	if _, err := model.FilterPath(field); err != nil {
		return nil, err
	}

	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]model.Country, 0)
	for _, c := range all {
		ok, err := c.MatchesField(field, value)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func (s *RedisStore) Insert(ctx context.Context, country model.Country) (model.Country, error) {
	country.ID = uuid.NewString()

	jsonData, err := json.Marshal(country)
	if err != nil {
		return model.Country{}, fmt.Errorf("failed to marshal country: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, countryKey(country.ID), jsonData, 0)
		pipe.RPush(ctx, redisOrderKey, country.ID)
		return nil
	})
	if err != nil {
		return model.Country{}, apperr.Unavailable("insert", err)
	}
	return country, nil
}

func (s *RedisStore) InsertMany(ctx context.Context, countries []model.Country) (int, error) {
	pipeline := s.client.Pipeline()
	count := 0

	for _, country := range countries {
		country.ID = uuid.NewString()

		jsonData, err := json.Marshal(country)
		if err != nil {
			return count, fmt.Errorf("failed to marshal country %s: %w", country.Name, err)
		}

		pipeline.Set(ctx, countryKey(country.ID), jsonData, 0)
		pipeline.RPush(ctx, redisOrderKey, country.ID)
		count++

		// Execute pipeline in batches
		if count%redisBatchSize == 0 {
			if _, err := pipeline.Exec(ctx); err != nil {
				return count - redisBatchSize, apperr.Unavailable("insert batch", err)
			}
			pipeline = s.client.Pipeline()
		}
	}

	// Execute remaining commands
	if count%redisBatchSize != 0 {
		if _, err := pipeline.Exec(ctx); err != nil {
			return count - count%redisBatchSize, apperr.Unavailable("insert final batch", err)
		}
	}

	s.logger.Debug("inserted countries", zap.Int("count", count))
	return count, nil
}

func (s *RedisStore) Replace(ctx context.Context, country model.Country) (model.Country, error) {
	jsonData, err := json.Marshal(country)
	if err != nil {
		return model.Country{}, fmt.Errorf("failed to marshal country: %w", err)
	}

	// XX keeps a concurrently removed record from coming back without an order entry.
	ok, err := s.client.SetXX(ctx, countryKey(country.ID), jsonData, 0).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return model.Country{}, apperr.Unavailable("replace", err)
	}
	if !ok {
		return model.Country{}, apperr.NotFound("country %s", country.ID)
	}
	return country, nil
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, redisOrderKey).Result()
	if err != nil {
		return 0, apperr.Unavailable("count", err)
	}
	return n, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ids, err := s.client.LRange(ctx, redisOrderKey, 0, -1).Result()
	if err != nil {
		return apperr.Unavailable("clear", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, countryKey(id))
	}
	keys = append(keys, redisOrderKey)

	for start := 0; start < len(keys); start += redisBatchSize {
		end := start + redisBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return apperr.Unavailable("clear", err)
		}
	}
	return nil
}

func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}
