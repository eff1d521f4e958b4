package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Relay        RelayConfig
	Planogram    PlanogramConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDPOINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDPOINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENDPOINT_DB_DSN"`
	Driver string `envconfig:"VENDPOINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDPOINT_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDPOINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDPOINT_DB_USER"`
	LegacyPassword string `envconfig:"VENDPOINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDPOINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDPOINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDPOINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDPOINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDPOINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDPOINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDPOINT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"VENDPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RelayConfig points the dispense session at the central relay.
type RelayConfig struct {
	URL              string        `envconfig:"VENDPOINT_RELAY_URL" required:"true"`
	HandshakeTimeout time.Duration `envconfig:"VENDPOINT_RELAY_HANDSHAKE_TIMEOUT" default:"10s"`
	WriteTimeout     time.Duration `envconfig:"VENDPOINT_RELAY_WRITE_TIMEOUT" default:"5s"`
	AckTimeout       time.Duration `envconfig:"VENDPOINT_RELAY_ACK_TIMEOUT" default:"30s"`
	EventBuffer      int           `envconfig:"VENDPOINT_RELAY_EVENT_BUFFER" default:"64"`
}

type PlanogramConfig struct {
	LayoutSize      int `envconfig:"VENDPOINT_PLANOGRAM_LAYOUT_SIZE" default:"60"`
	DefaultCapacity int `envconfig:"VENDPOINT_PLANOGRAM_DEFAULT_CAPACITY" default:"10"`
	BulkAssignQty   int `envconfig:"VENDPOINT_PLANOGRAM_BULK_ASSIGN_QTY" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VENDPOINT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VENDPOINT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"VENDPOINT_DB_HOST": db.LegacyHost,
		"VENDPOINT_DB_USER": db.LegacyUser,
		"VENDPOINT_DB_NAME": db.LegacyName,
	}
	for _, name := range []string{"VENDPOINT_DB_HOST", "VENDPOINT_DB_USER", "VENDPOINT_DB_NAME"} {
		if legacyValues[name] == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either VENDPOINT_DB_DSN or %s are required", strings.Join(missing, ", "))
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
