package config

import (
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Port string `envconfig:"PORT" default:"3000"`

	// DB
	DBDriver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN      string `envconfig:"DB_DSN" default:"./brando.db"`
	DBLogLevel string `envconfig:"DB_LOG_LEVEL" default:"warn"`

	// Credentials
	TokenSecret   string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	TokenTTL      time.Duration `envconfig:"JWT_TTL" default:"1h"`
	JWKSURL       string        `envconfig:"JWKS_URL"`
	CookieName    string        `envconfig:"COOKIE_NAME" default:"token"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`
	CORSOrigins   string        `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD"`

	// Payments
	PaymentProvider string `envconfig:"PAYMENT_PROVIDER" default:"stripe"`
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	OmisePublicKey  string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey  string `envconfig:"OMISE_SECRET_KEY"`
	OmiseSourceType string `envconfig:"OMISE_SOURCE_TYPE" default:"promptpay"`

	// Cache
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	// Events
	EventsDriver   string   `envconfig:"EVENTS_DRIVER" default:"log"`
	RabbitURL      string   `envconfig:"RABBIT_URL"`
	EventsExchange string   `envconfig:"EVENTS_EXCHANGE" default:"brando.events"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS"`

	// Observability
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	return c, nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}
