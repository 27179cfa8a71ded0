package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "KENNEL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Deposit       DepositConfig
	PayPal        PayPalConfig
	Stripe        StripeConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Deposit.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KENNEL_APP_ENV" required:"true"`
	Port         string `envconfig:"KENNEL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KENNEL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KENNEL_LOG_WARN_STACK" default:"false"`
	// ExtraCORSOrigins joins the built-in storefront origins on the
	// allow list, comma separated.
	ExtraCORSOrigins []string `envconfig:"KENNEL_CORS_EXTRA_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KENNEL_DB_DSN"`
	Driver string `envconfig:"KENNEL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KENNEL_DB_HOST"`
	LegacyPort     int    `envconfig:"KENNEL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KENNEL_DB_USER"`
	LegacyPassword string `envconfig:"KENNEL_DB_PASSWORD"`
	LegacyName     string `envconfig:"KENNEL_DB_NAME"`
	LegacySSLMode  string `envconfig:"KENNEL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KENNEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KENNEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KENNEL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KENNEL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KENNEL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KENNEL_REDIS_ADDR"`
	Password     string        `envconfig:"KENNEL_REDIS_PASSWORD"`
	DB           int           `envconfig:"KENNEL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KENNEL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KENNEL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KENNEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KENNEL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KENNEL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KENNEL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KENNEL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KENNEL_JWT_EXPIRATION_MINUTES" default:"480"`
	CookieName        string `envconfig:"KENNEL_SESSION_COOKIE_NAME" default:"kennel_admin_session"`
	CookieSecure      bool   `envconfig:"KENNEL_SESSION_COOKIE_SECURE" default:"true"`
}

// SessionTTL returns the admin session lifetime. There is no server-side
// revocation list; a leaked token is bounded only by this window.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KENNEL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KENNEL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KENNEL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KENNEL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KENNEL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"KENNEL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"KENNEL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"KENNEL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KENNEL_AUTO_MIGRATE" default:"false"`
	// RelistOnRefund controls whether a refunded puppy goes back to available
	// automatically. Business policy, not an invariant.
	RelistOnRefund bool `envconfig:"KENNEL_RELIST_ON_REFUND" default:"false"`
}

// DepositConfig selects how the deposit amount is derived from a puppy price.
type DepositConfig struct {
	Policy       string `envconfig:"KENNEL_DEPOSIT_POLICY" default:"flat"`
	FlatCents    int64  `envconfig:"KENNEL_DEPOSIT_FLAT_CENTS" default:"30000"`
	PricePercent int    `envconfig:"KENNEL_DEPOSIT_PRICE_PERCENT" default:"10"`
	Currency     string `envconfig:"KENNEL_DEPOSIT_CURRENCY" default:"USD"`
}

const (
	DepositPolicyFlat    = "flat"
	DepositPolicyPercent = "percent"
)

func (d DepositConfig) validate() error {
	switch d.Policy {
	case DepositPolicyFlat:
		if d.FlatCents <= 0 {
			return fmt.Errorf("flat deposit policy requires a positive KENNEL_DEPOSIT_FLAT_CENTS")
		}
	case DepositPolicyPercent:
		if d.PricePercent <= 0 || d.PricePercent > 100 {
			return fmt.Errorf("percent deposit policy requires KENNEL_DEPOSIT_PRICE_PERCENT in (0,100]")
		}
	default:
		return fmt.Errorf("deposit policy must be %q or %q", DepositPolicyFlat, DepositPolicyPercent)
	}
	return nil
}

type PayPalConfig struct {
	ClientID  string        `envconfig:"KENNEL_PAYPAL_CLIENT_ID"`
	Secret    string        `envconfig:"KENNEL_PAYPAL_SECRET"`
	WebhookID string        `envconfig:"KENNEL_PAYPAL_WEBHOOK_ID"`
	Env       string        `envconfig:"KENNEL_PAYPAL_ENV" default:"sandbox"`
	Timeout   time.Duration `envconfig:"KENNEL_PAYPAL_TIMEOUT" default:"20s"`
	// OrderTTL mirrors PayPal's own order expiry; it is what the intake
	// endpoint quotes to a blocked caller as the retry window.
	OrderTTL  time.Duration `envconfig:"KENNEL_PAYPAL_ORDER_TTL" default:"15m"`
	ReturnURL string        `envconfig:"KENNEL_PAYPAL_RETURN_URL"`
	CancelURL string        `envconfig:"KENNEL_PAYPAL_CANCEL_URL"`
}

// Environment returns the normalized PayPal environment (sandbox/live).
func (p PayPalConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type StripeConfig struct {
	APIKey string `envconfig:"KENNEL_STRIPE_API_KEY"`
	Secret string `envconfig:"KENNEL_STRIPE_SECRET"`
	Env    string `envconfig:"KENNEL_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID string `envconfig:"KENNEL_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"KENNEL_PUBSUB_NOTIFICATION_TOPIC" default:"kennel-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"KENNEL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"KENNEL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"KENNEL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"KENNEL_DB_HOST": db.LegacyHost,
		"KENNEL_DB_USER": db.LegacyUser,
		"KENNEL_DB_NAME": db.LegacyName,
	}
	for _, envName := range []string{"KENNEL_DB_HOST", "KENNEL_DB_USER", "KENNEL_DB_NAME"} {
		if legacyValues[envName] == "" {
			missing = append(missing, envName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either KENNEL_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

// ValidateGateways rejects a deployment that would only discover missing
// gateway secrets when the first webhook arrives.
func (c *Config) ValidateGateways() error {
	var missing []string
	if strings.TrimSpace(c.PayPal.ClientID) == "" {
		missing = append(missing, "KENNEL_PAYPAL_CLIENT_ID")
	}
	if strings.TrimSpace(c.PayPal.Secret) == "" {
		missing = append(missing, "KENNEL_PAYPAL_SECRET")
	}
	if strings.TrimSpace(c.PayPal.WebhookID) == "" {
		missing = append(missing, "KENNEL_PAYPAL_WEBHOOK_ID")
	}
	if strings.TrimSpace(c.Stripe.APIKey) == "" {
		missing = append(missing, "KENNEL_STRIPE_API_KEY")
	}
	if strings.TrimSpace(c.Stripe.Secret) == "" {
		missing = append(missing, "KENNEL_STRIPE_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing gateway configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
