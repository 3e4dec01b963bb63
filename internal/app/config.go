package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

const (
	defaultAddr     = "0.0.0.0:3001"
	defaultMongoURI = "mongodb://localhost:27017"
)

// Config holds the complete application configuration, loadable from
// environment variables (FOOD_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:3001" usage:"API server listen address"`
	MaxBodyBytes int64  `default:"1048576" usage:"Maximum request body size in bytes" flag:"max-body-bytes"`
	Storage      StorageConfig
	Cache        CacheConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects and configures the catalog and order store.
type StorageConfig struct {
	Driver        string `default:"postgres" usage:"Storage driver: postgres, mongo or memory"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (FOOD_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MongoURI      string `usage:"MongoDB connection URI (FOOD_STORAGE_MONGO_URI or MONGO_URL)" flag:"mongo-uri"`
	MongoDatabase string `default:"food_ordering_platform" usage:"MongoDB database name" flag:"mongo-database"`
	Seed          bool   `default:"true" usage:"Insert the bundled sample catalog when records are missing"`
}

// CacheConfig controls the Redis catalog cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr     string        `usage:"Redis address host:port" flag:"redis-addr"`
	RedisPassword string        `usage:"Redis password" flag:"redis-password"`
	RedisDB       int           `default:"0" usage:"Redis database number" flag:"redis-db"`
	TTL           time.Duration `default:"5m" usage:"Catalog cache entry lifetime"`
}

// OrdersConfig controls order pricing and catalog lookups.
type OrdersConfig struct {
	DeliveryFee       string `default:"2.99" usage:"Delivery fee applied to every order" flag:"delivery-fee"`
	LookupConcurrency int    `default:"8" usage:"Parallel catalog lookups per order" flag:"lookup-concurrency"`
}

// Fee parses DeliveryFee.
func (c OrdersConfig) Fee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "parse delivery fee %q", c.DeliveryFee)
	}
	if fee.IsNegative() {
		return decimal.Decimal{}, errors.Errorf("delivery fee %s is negative", fee)
	}
	return fee, nil
}

// RateLimitConfig controls the per-client token bucket limiter.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client, 0 disables"`
	Burst int     `default:"40" usage:"Burst size per client"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from command-line flags, environment
// variables and YAML config files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FOOD",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/food/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL, MONGO_URL and
// PORT variables set by hosting platforms.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.MongoURI == "" {
		c.Storage.MongoURI = os.Getenv("MONGO_URL")
	}
	if c.Storage.MongoURI == "" {
		c.Storage.MongoURI = defaultMongoURI
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set FOOD_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	case DriverMongo, DriverMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := c.Orders.Fee(); err != nil {
		return err
	}
	if c.Orders.LookupConcurrency <= 0 {
		return errors.New("lookup concurrency must be positive")
	}
	return nil
}
