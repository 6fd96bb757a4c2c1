package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Paystack  PaystackConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Deposit   DepositConfig
	Hooks     HooksConfig
	Telemetry TelemetryConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Env          string        `env:"ENV,default=development"`
	LogLevel     string        `env:"LOG_LEVEL,default="`
	Listen       string        `env:"LISTEN_ADDR,default=:8080"`
	TimeoutRead  time.Duration `env:"SERVER_TIMEOUT_READ,default=10s"`
	TimeoutWrite time.Duration `env:"SERVER_TIMEOUT_WRITE,default=30s"`
	TimeoutIdle  time.Duration `env:"SERVER_TIMEOUT_IDLE,default=1m"`
	Shutdown     time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=15s"`
}

// DatabaseConfig configures the ledger store connection. URL, when set, wins
// over the individual fields.
type DatabaseConfig struct {
	URL            string        `env:"DATABASE_URL,default="`
	Host           string        `env:"DB_HOST,default=localhost"`
	Port           string        `env:"DB_PORT,default=5432"`
	User           string        `env:"DB_USER,default=chowvest"`
	Password       string        `env:"DB_PASSWORD,default=chowvest"`
	Name           string        `env:"DB_NAME,default=chowvest"`
	SSLMode        string        `env:"DB_SSLMODE,default=disable"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS,default=50"`
	ConnMaxLife    time.Duration `env:"DB_CONN_MAX_LIFETIME,default=1h"`
	MigrationsPath string        `env:"DB_MIGRATIONS_PATH,default=file://migrations"`
	Isolation      string        `env:"DB_LEDGER_ISOLATION,default=read_committed"`
	MaxRetries     int           `env:"DB_LEDGER_MAX_RETRIES,default=3"`
}

// AuthConfig holds the secret shared with the session issuer.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,default=fallback-secret-key-for-dev-only"`
}

// PaystackConfig configures the payment gateway client.
type PaystackConfig struct {
	SecretKey       string        `env:"PAYSTACK_SECRET_KEY,default="`
	BaseURL         string        `env:"PAYSTACK_BASE_URL,default=https://api.paystack.co"`
	CallbackURL     string        `env:"PAYSTACK_CALLBACK_URL,default=http://localhost:3000/wallet?payment=success"`
	Timeout         time.Duration `env:"PAYSTACK_TIMEOUT,default=15s"`
	BreakerFailures uint32        `env:"PAYSTACK_BREAKER_FAILURES,default=5"`
	BreakerCooldown time.Duration `env:"PAYSTACK_BREAKER_COOLDOWN,default=30s"`
}

// RedisConfig selects the rate-limit backend. An empty Addr keeps counters in
// process memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,default="`
	Password string `env:"REDIS_PASSWORD,default="`
	DB       int    `env:"REDIS_DB,default=0"`
}

// KafkaConfig configures event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers string `env:"KAFKA_BROKERS,default="`
	Topic   string `env:"KAFKA_TOPIC,default=chowvest.events"`
}

// DepositConfig bounds how often a user may start a deposit.
type DepositConfig struct {
	MaxAttempts int           `env:"DEPOSIT_RATE_LIMIT_MAX,default=10"`
	Window      time.Duration `env:"DEPOSIT_RATE_LIMIT_WINDOW,default=60m"`
}

// HooksConfig bounds post-commit side effects.
type HooksConfig struct {
	Timeout time.Duration `env:"HOOK_TIMEOUT,default=10s"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME,default=chowvest-api"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT,default="`
	MetricsEnabled bool   `env:"METRICS_ENABLED,default=true"`
}

// DSN returns the PostgreSQL connection string for gorm.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (c DatabaseConfig) MigrateURL() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// BrokerList splits the comma-separated broker setting.
func (c KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

var (
	appConfig *Config
	mu        sync.Mutex
)

// Load loads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env load: %w", err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("env decode: %w", err)
	}

	if cfg.Deposit.MaxAttempts <= 0 {
		return nil, fmt.Errorf("DEPOSIT_RATE_LIMIT_MAX must be positive")
	}
	if cfg.Paystack.Timeout <= 0 {
		return nil, fmt.Errorf("PAYSTACK_TIMEOUT must be positive")
	}

	mu.Lock()
	appConfig = cfg
	mu.Unlock()
	return cfg, nil
}

// BindFlags registers command-line overrides for the most common settings.
// Call before pflag.Parse.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Server.Listen, "listen-addr", "a", c.Server.Listen, "Server address to listen on")
	fs.StringVarP(&c.Database.URL, "database-url", "d", c.Database.URL, "Database URL")
	fs.StringVar(&c.Database.MigrationsPath, "migrations", c.Database.MigrationsPath, "Migrations source URL")
}

// Get returns the application configuration
func Get() *Config {
	mu.Lock()
	cfg := appConfig
	mu.Unlock()
	if cfg != nil {
		return cfg
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}
