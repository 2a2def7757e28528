package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dogepandaCodes/PokinPokin/internal/pkg/validate"
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Frontend FrontendConfig `yaml:"frontend"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Auth     AuthConfig     `yaml:"auth"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Verify   VerifyConfig   `yaml:"verify"`
	Audit    AuditConfig    `yaml:"audit"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type FrontendConfig struct {
	URL string `yaml:"url"`
}

type StripeConfig struct {
	SecretKey          string        `yaml:"secret_key"`
	WebhookSecret      string        `yaml:"webhook_secret"`
	Currency           string        `yaml:"currency"`
	PaymentMethodTypes []string      `yaml:"payment_method_types"`
	Timeout            time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// AuthConfig enables bearer verification of hosted-auth access tokens when
// JWTSecret is set. Empty secret keeps the body-supplied user id trusted.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type CheckoutConfig struct {
	RatePerMinute int `yaml:"rate_per_minute"`
}

type VerifyConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type AuditConfig struct {
	RetrySchedule    string `yaml:"retry_schedule"`
	RetryBatchSize   int    `yaml:"retry_batch_size"`
	RetryMaxAttempts int    `yaml:"retry_max_attempts"`
}

type CatalogConfig struct {
	Packages []PackageConfig `yaml:"packages"`
}

type PackageConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Coins int    `yaml:"coins"`
	Bonus int    `yaml:"bonus"`
	Price int64  `yaml:"price"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":3001",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "debug"},
		Stripe: StripeConfig{
			Currency:           "usd",
			PaymentMethodTypes: []string{"card"},
			Timeout:            30 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		S3: S3Config{
			Bucket: "coin-webhooks",
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "payment_events",
		},
		Checkout: CheckoutConfig{
			RatePerMinute: 10,
		},
		Verify: VerifyConfig{
			CacheTTL: 10 * time.Minute,
		},
		Audit: AuditConfig{
			RetrySchedule:    "@every 1m",
			RetryBatchSize:   50,
			RetryMaxAttempts: 10,
		},
		Catalog: CatalogConfig{
			Packages: []PackageConfig{
				{ID: "starter", Name: "Starter Pack", Coins: 10, Bonus: 0, Price: 1000},
				{ID: "popular", Name: "Player Pack", Coins: 20, Bonus: 2, Price: 2000},
				{ID: "premium", Name: "Pro Pack", Coins: 50, Bonus: 10, Price: 5000},
				{ID: "ultimate", Name: "Ultimate Pack", Coins: 100, Bonus: 30, Price: 10000},
			},
		},
	}
}

// Load reads the API configuration and checks the API startup requirements.
func Load(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWorker reads the same configuration for the audit retry worker, which
// only talks to Postgres and Redis.
func LoadWorker(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first missing startup requirement. Secrets never get
// defaults.
func (c Config) Validate() error {
	if name, missing := validate.FirstMissing(
		[2]string{"stripe.secret_key", c.Stripe.SecretKey},
		[2]string{"stripe.webhook_secret", c.Stripe.WebhookSecret},
		[2]string{"postgres.dsn", c.Postgres.DSN},
		[2]string{"frontend.url", c.Frontend.URL},
	); missing {
		return fmt.Errorf("%s is required", name)
	}
	if len(c.Catalog.Packages) == 0 {
		return errors.New("catalog.packages must not be empty")
	}
	return nil
}

func (c Config) ValidateWorker() error {
	if name, missing := validate.FirstMissing(
		[2]string{"postgres.dsn", c.Postgres.DSN},
		[2]string{"redis.addr", c.Redis.Addr},
	); missing {
		return fmt.Errorf("%s is required", name)
	}
	if c.Audit.RetrySchedule == "" {
		return errors.New("audit.retry_schedule is required")
	}
	return nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Frontend.URL = v
	}

	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Stripe.WebhookSecret = v
	}
	if err := overrideDuration("STRIPE_TIMEOUT", &cfg.Stripe.Timeout); err != nil {
		return err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.S3.UseSSL); err != nil {
		return err
	}

	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.RabbitMQ.URL = v
	}

	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if err := overrideInt("CHECKOUT_RATE_PER_MINUTE", &cfg.Checkout.RatePerMinute); err != nil {
		return err
	}
	if err := overrideDuration("VERIFY_CACHE_TTL", &cfg.Verify.CacheTTL); err != nil {
		return err
	}
	if v := os.Getenv("AUDIT_RETRY_SCHEDULE"); v != "" {
		cfg.Audit.RetrySchedule = v
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
