package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	Digest       DigestConfig
	Periods      PeriodsConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Digest.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"GROUPBUY_APP_ENV" required:"true"`
	Port         string   `envconfig:"GROUPBUY_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"GROUPBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"GROUPBUY_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"GROUPBUY_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GROUPBUY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GROUPBUY_DB_DSN"`
	Driver string `envconfig:"GROUPBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GROUPBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"GROUPBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GROUPBUY_DB_USER"`
	LegacyPassword string `envconfig:"GROUPBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GROUPBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GROUPBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GROUPBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROUPBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROUPBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROUPBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROUPBUY_REDIS_URL"`
	Address      string        `envconfig:"GROUPBUY_REDIS_ADDR"`
	Password     string        `envconfig:"GROUPBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROUPBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROUPBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROUPBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROUPBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROUPBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROUPBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SMTPConfig struct {
	Host     string `envconfig:"GROUPBUY_SMTP_HOST"`
	Port     int    `envconfig:"GROUPBUY_SMTP_PORT" default:"587"`
	Username string `envconfig:"GROUPBUY_SMTP_USER"`
	Password string `envconfig:"GROUPBUY_SMTP_PASS"`
	From     string `envconfig:"GROUPBUY_SMTP_FROM"`
}

// Enabled reports whether enough SMTP settings exist to deliver mail.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != "" && s.Port > 0
}

type DigestConfig struct {
	Timezone     string        `envconfig:"GROUPBUY_DIGEST_TIMEZONE" default:"America/New_York"`
	LookbackDays int           `envconfig:"GROUPBUY_DIGEST_LOOKBACK_DAYS" default:"3"`
	ClaimTTL     time.Duration `envconfig:"GROUPBUY_DIGEST_CLAIM_TTL" default:"1h"`
	Subject      string        `envconfig:"GROUPBUY_DIGEST_SUBJECT" default:"Your commitment updates"`
}

// Location resolves the reporting timezone used to bound a digest day.
func (d DigestConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(d.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading digest timezone %q: %w", name, err)
	}
	return loc, nil
}

type PeriodsConfig struct {
	OpenDay       int    `envconfig:"GROUPBUY_PERIOD_OPEN_DAY" default:"1"`
	CloseDay      int    `envconfig:"GROUPBUY_PERIOD_CLOSE_DAY" default:"20"`
	OverridesFile string `envconfig:"GROUPBUY_PERIOD_OVERRIDES_FILE"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"GROUPBUY_CRON_INTERVAL" default:"24h"`
	StatusChangeRetention int           `envconfig:"GROUPBUY_STATUS_CHANGE_RETENTION_DAYS" default:"180"`
	MetricsAddr           string        `envconfig:"GROUPBUY_CRON_METRICS_ADDR" default:":9090"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GROUPBUY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GROUPBUY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
