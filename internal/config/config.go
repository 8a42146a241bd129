package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"certean-billing/pkg/utils"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Settings is the service configuration, resolved from the environment
// (optionally seeded by a .env file).
type Settings struct {
	MongoURI          string
	MongoDBName       string
	ProductDBPrefix   string
	ProductCollection string

	StoreDriver  string
	PostgresURL  string
	StoreTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	WebhookTolerance    time.Duration
	ProcessorTimeout    time.Duration
	FrontendURL         string

	APIHost     string
	APIPort     int
	JWTSecret   string
	CORSOrigins []string

	TierConfigFile string
	PriceTiers     []PriceTier

	LogLevel      string
	LogFormat     string
	EventCacheTTL time.Duration
}

func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.APIHost, s.APIPort)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongodb_uri", "")
	v.SetDefault("mongodb_db_name", "c_monitor_shared")
	v.SetDefault("product_db_prefix", "c_monitor_")
	v.SetDefault("product_collection", "products")
	v.SetDefault("store_driver", DriverMongo)
	v.SetDefault("postgres_url", "")
	v.SetDefault("store_timeout", "5s")
	v.SetDefault("stripe_secret_key", "")
	v.SetDefault("stripe_webhook_secret", "")
	v.SetDefault("webhook_tolerance", "300s")
	v.SetDefault("processor_timeout", "10s")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 8001)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("tier_config_file", "config/tiers.yaml")
	v.SetDefault("price_tiers", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("event_cache_ttl", "10m")
}

// Load reads .env (if present) and the process environment.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		MongoURI:            v.GetString("mongodb_uri"),
		MongoDBName:         v.GetString("mongodb_db_name"),
		ProductDBPrefix:     v.GetString("product_db_prefix"),
		ProductCollection:   v.GetString("product_collection"),
		StoreDriver:         strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
		PostgresURL:         v.GetString("postgres_url"),
		StoreTimeout:        v.GetDuration("store_timeout"),
		StripeSecretKey:     strings.TrimSpace(v.GetString("stripe_secret_key")),
		StripeWebhookSecret: strings.TrimSpace(v.GetString("stripe_webhook_secret")),
		WebhookTolerance:    v.GetDuration("webhook_tolerance"),
		ProcessorTimeout:    v.GetDuration("processor_timeout"),
		FrontendURL:         strings.TrimRight(v.GetString("frontend_url"), "/"),
		APIHost:             v.GetString("api_host"),
		APIPort:             v.GetInt("api_port"),
		JWTSecret:           v.GetString("jwt_secret"),
		CORSOrigins:         splitList(v.GetString("cors_origins")),
		TierConfigFile:      v.GetString("tier_config_file"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
		EventCacheTTL:       v.GetDuration("event_cache_ttl"),
	}

	tiers, err := ParsePriceTiers(v.GetString("price_tiers"))
	if err != nil {
		return nil, err
	}
	s.PriceTiers = tiers

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate enforces the boot-time requirements. A missing webhook secret is
// not fatal here; the webhook route reports it per request.
func (s *Settings) Validate() error {
	if s.StripeSecretKey == "" {
		return fmt.Errorf("%w: STRIPE_SECRET_KEY is required", utils.ErrConfiguration)
	}

	switch s.StoreDriver {
	case DriverMongo:
		if s.MongoURI == "" {
			return fmt.Errorf("%w: MONGODB_URI is required for the mongo store", utils.ErrConfiguration)
		}
	case DriverPostgres:
		if s.PostgresURL == "" {
			return fmt.Errorf("%w: POSTGRES_URL is required for the postgres store", utils.ErrConfiguration)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", utils.ErrConfiguration, s.StoreDriver)
	}

	if s.StoreTimeout <= 0 || s.ProcessorTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", utils.ErrConfiguration)
	}
	if s.WebhookTolerance <= 0 {
		return fmt.Errorf("%w: WEBHOOK_TOLERANCE must be positive", utils.ErrConfiguration)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
