package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/spf13/viper"
)

// Config is the full service configuration. Every key has a default, so an
// absent config file still yields a runnable dev setup (SQLite, stdout logs,
// no external providers).
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Affiliate AffiliateConfig `mapstructure:"affiliate"`
	Partner   PartnerConfig   `mapstructure:"partner"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite | postgres
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent | error | warn | info
}

// RedisConfig enables inbound event de-duplication when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

// KafkaConfig enables event publishing and the inbound consumer when Brokers is set.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	EventsTopic   string   `mapstructure:"events_topic"`
	InboundTopics []string `mapstructure:"inbound_topics"`
	GroupID       string   `mapstructure:"group_id"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Output     string `mapstructure:"output"` // stdout, stderr, file
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type PointsConfig struct {
	ReferralSignup   int64 `mapstructure:"referral_signup"`
	ReferralPurchase int64 `mapstructure:"referral_purchase"`
	ProConversion    int64 `mapstructure:"pro_conversion"`
}

type TierConfig struct {
	Name         string `mapstructure:"name"`
	MinPoints    int64  `mapstructure:"min_points"`
	MinReferrals int    `mapstructure:"min_referrals"`
}

type AffiliateConfig struct {
	Points                   PointsConfig `mapstructure:"points"`
	Tiers                    []TierConfig `mapstructure:"tiers"`
	PartnerMinReferrals      int          `mapstructure:"partner_min_referrals"`
	PartnerMinProConversions int          `mapstructure:"partner_min_pro_conversions"`
	CodeRetries              int          `mapstructure:"code_retries"`
	WriteRetries             int          `mapstructure:"write_retries"`
}

// TierPolicy builds the evaluator from the configured table.
func (c AffiliateConfig) TierPolicy() (affiliate.TierPolicy, error) {
	thresholds := make([]affiliate.TierThreshold, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		thresholds = append(thresholds, affiliate.TierThreshold{
			Tier:         affiliate.Tier(strings.ToUpper(t.Name)),
			MinPoints:    t.MinPoints,
			MinReferrals: t.MinReferrals,
		})
	}
	return affiliate.NewTierPolicy(thresholds, c.PartnerMinReferrals, c.PartnerMinProConversions)
}

type PartnerConfig struct {
	Currency      string `mapstructure:"currency"`
	NumberRetries int    `mapstructure:"number_retries"`
}

type ResendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	From    string `mapstructure:"from"`
	BaseURL string `mapstructure:"base_url"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	BaseURL    string `mapstructure:"base_url"`
}

type NotifyConfig struct {
	Resend ResendConfig `mapstructure:"resend"`
	Twilio TwilioConfig `mapstructure:"twilio"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// StorageConfig enables payout statement archiving when Bucket is set.
type StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

type JobsConfig struct {
	ReconcileInterval  time.Duration `mapstructure:"reconcile_interval"`
	ReconcileBatchSize int           `mapstructure:"reconcile_batch_size"`
}

// Load reads configFile, or config.yaml from the usual search paths when
// configFile is empty. LEDGER_* environment variables override file values
// (database.dsn -> LEDGER_DATABASE_DSN).
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/affiliate-ledger")
	}

	setDefaults(v)

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("config: database.dsn is required")
	}
	if c.Affiliate.Points.ReferralSignup <= 0 || c.Affiliate.Points.ReferralPurchase <= 0 || c.Affiliate.Points.ProConversion <= 0 {
		return errors.New("config: affiliate.points values must be positive")
	}
	if _, err := c.Affiliate.TierPolicy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.Partner.Currency) != 3 {
		return fmt.Errorf("config: partner.currency %q is not an ISO code", c.Partner.Currency)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "20s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:affiliate_ledger.db?_foreign_keys=on&_busy_timeout=5000")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dedup_ttl", "72h")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.events_topic", "affiliate-ledger.events")
	v.SetDefault("kafka.inbound_topics", []string{"referrals.purchases", "referrals.conversions", "partners.leads", "shop.sales"})
	v.SetDefault("kafka.group_id", "affiliate-ledger")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/ledgerd.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "affiliate-ledger")

	v.SetDefault("affiliate.points.referral_signup", 50)
	v.SetDefault("affiliate.points.referral_purchase", 200)
	v.SetDefault("affiliate.points.pro_conversion", 500)
	tiers := make([]map[string]interface{}, 0, 4)
	for _, t := range affiliate.DefaultTierThresholds() {
		tiers = append(tiers, map[string]interface{}{
			"name":          string(t.Tier),
			"min_points":    t.MinPoints,
			"min_referrals": t.MinReferrals,
		})
	}
	v.SetDefault("affiliate.tiers", tiers)
	v.SetDefault("affiliate.partner_min_referrals", 10)
	v.SetDefault("affiliate.partner_min_pro_conversions", 3)
	v.SetDefault("affiliate.code_retries", 5)
	v.SetDefault("affiliate.write_retries", 5)

	v.SetDefault("partner.currency", "usd")
	v.SetDefault("partner.number_retries", 5)

	v.SetDefault("notify.resend.api_key", "")
	v.SetDefault("notify.resend.from", "")
	v.SetDefault("notify.resend.base_url", "https://api.resend.com")
	v.SetDefault("notify.twilio.account_sid", "")
	v.SetDefault("notify.twilio.auth_token", "")
	v.SetDefault("notify.twilio.from", "")
	v.SetDefault("notify.twilio.base_url", "https://api.twilio.com")

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.base_url", "")

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.prefix", "payout-statements/")

	v.SetDefault("jobs.reconcile_interval", "1h")
	v.SetDefault("jobs.reconcile_batch_size", 200)
}
