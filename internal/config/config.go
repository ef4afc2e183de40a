package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DriverMongo = "mongo"
	DriverRedis = "redis"
)

type Config struct {
	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080" validate:"required,numeric"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s" validate:"min=100ms"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogPretty      bool          `env:"LOG_PRETTY" envDefault:"false"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`

	StoreDriver     string `env:"STORE_DRIVER" envDefault:"mongo" validate:"oneof=mongo redis"`
	MongoURI        string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017" validate:"required_if=StoreDriver mongo"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"rest_countries" validate:"required_if=StoreDriver mongo"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"country" validate:"required_if=StoreDriver mongo"`
	RedisAddress    string `env:"REDIS_ADDRESS" envDefault:"localhost:6379" validate:"required_if=StoreDriver redis"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`

	ImportSourceURL string `env:"IMPORT_SOURCE_URL" envDefault:"https://restcountries.com/v3.1/all?fields=name,capital,region,subregion,population,area,currencies,languages,timezones,latlng" validate:"omitempty,url"`
}

var AppConfig Config

// Load reads .env (when present) and the process environment into AppConfig.
func Load() error {
	cfg, err := Parse()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func Parse() (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
