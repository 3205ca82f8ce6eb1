package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Yield    YieldConfig    `mapstructure:"yield"`
	FX       FXConfig       `mapstructure:"fx"`
	Network  NetworkConfig  `mapstructure:"network"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// YieldConfig controls the lending pool and its accrual schedule.
type YieldConfig struct {
	PoolID             string        `mapstructure:"pool_id"` // Fixed UUID of the singleton pool row
	DefaultAPR         float64       `mapstructure:"default_apr"`
	AccrualInterval    time.Duration `mapstructure:"accrual_interval"`
	SettlementCurrency string        `mapstructure:"settlement_currency"`
}

// FXConfig controls the currency-rate collaborator.
type FXConfig struct {
	Markup   float64       `mapstructure:"markup"` // Fraction added on conversions
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// NetworkConfig controls the card-network collaborator.
type NetworkConfig struct {
	SingleTxLimit float64       `mapstructure:"single_tx_limit"` // Authorizations above this are declined
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: YLW_ (Yield Wallet).
// Nested keys use underscore: YLW_DATABASE_HOST, YLW_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "yield_wallet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "yield-wallet")
	v.SetDefault("yield.pool_id", "00000000-0000-0000-0000-000000000001")
	v.SetDefault("yield.default_apr", 0.05)
	v.SetDefault("yield.accrual_interval", "1h")
	v.SetDefault("yield.settlement_currency", "USD")
	v.SetDefault("fx.markup", 0.02)
	v.SetDefault("fx.cache_ttl", "5m")
	v.SetDefault("network.single_tx_limit", 10000)
	v.SetDefault("network.call_timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: YLW_DATABASE_HOST -> database.host
	v.SetEnvPrefix("YLW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional — env vars can suffice
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Yield.DefaultAPR < 0 || cfg.Yield.DefaultAPR > 1 {
		return nil, fmt.Errorf("yield.default_apr must be within [0,1], got %v", cfg.Yield.DefaultAPR)
	}

	return &cfg, nil
}
