// Package config loads the process configuration. Values come from an
// optional YAML file named by CONFIG_FILE and are then overridden by
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bibliolab/pkg/logger"
)

// Config is the root configuration object passed to constructors.
type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Policy    PolicyConfig    `yaml:"policy"`
	Log       logger.Config   `yaml:"log"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Worker    WorkerConfig    `yaml:"worker"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client IP
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig holds the daily request allowances per identity.
type RateLimitConfig struct {
	Enabled    bool `yaml:"enabled"`
	AnonPerDay int  `yaml:"anon_per_day"`
	UserPerDay int  `yaml:"user_per_day"`
	MaxTracked int  `yaml:"max_tracked"`
}

// RedisConfig is optional; an empty Addr disables caching and the outbox relay target.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PolicyConfig holds the CEL mutation rule. Empty means the built-in owner-or-admin rule.
type PolicyConfig struct {
	Expression string `yaml:"expression"`
}

type AnalysisConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	Channel      string        `yaml:"channel"`
}

// Default returns the configuration used when nothing is set.
// TracingConfig controls OpenTelemetry export. An empty endpoint with tracing
// enabled prints spans to stdout.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func Default() Config {
	return Config{
		Env: "development",
		HTTP: HTTPConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Issuer:     "bibliolab",
			AccessTTL:  60 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			AnonPerDay: 100,
			UserPerDay: 1000,
			MaxTracked: 10000,
		},
		Log:      logger.Config{Level: "info", Development: true},
		Analysis: AnalysisConfig{CacheTTL: 5 * time.Minute},
		Worker: WorkerConfig{
			PollInterval: 2 * time.Second,
			BatchSize:    100,
			Channel:      "bibliolab.events",
		},
		Tracing: TracingConfig{SampleRatio: 0.1},
	}
}

// Load reads CONFIG_FILE (if set) and applies environment overrides.
func Load() (Config, error) {
	return load(os.Getenv, os.ReadFile)
}

func load(getenv func(string) string, readFile func(string) ([]byte, error)) (Config, error) {
	cfg := Default()

	if path := getenv("CONFIG_FILE"); path != "" {
		raw, err := readFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	env := envReader{get: getenv}
	env.str("APP_ENV", &cfg.Env)
	env.str("APP_PORT", &cfg.HTTP.Port)
	env.duration("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)
	env.list("HTTP_TRUSTED_PROXIES", &cfg.HTTP.TrustedProxies)
	env.str("DATABASE_URL", &cfg.Database.URL)
	env.int32("DB_MAX_CONNS", &cfg.Database.MaxConns)
	env.int32("DB_MIN_CONNS", &cfg.Database.MinConns)
	env.str("JWT_SECRET", &cfg.JWT.Secret)
	env.str("JWT_ISSUER", &cfg.JWT.Issuer)
	env.duration("JWT_ACCESS_TTL", &cfg.JWT.AccessTTL)
	env.duration("JWT_REFRESH_TTL", &cfg.JWT.RefreshTTL)
	env.list("CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins)
	env.boolean("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	env.integer("RATE_LIMIT_ANON_PER_DAY", &cfg.RateLimit.AnonPerDay)
	env.integer("RATE_LIMIT_USER_PER_DAY", &cfg.RateLimit.UserPerDay)
	env.str("REDIS_ADDR", &cfg.Redis.Addr)
	env.str("REDIS_PASSWORD", &cfg.Redis.Password)
	env.integer("REDIS_DB", &cfg.Redis.DB)
	env.str("MUTATION_POLICY", &cfg.Policy.Expression)
	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.duration("ANALYSIS_CACHE_TTL", &cfg.Analysis.CacheTTL)
	env.duration("WORKER_POLL_INTERVAL", &cfg.Worker.PollInterval)
	env.integer("WORKER_BATCH_SIZE", &cfg.Worker.BatchSize)
	env.str("WORKER_CHANNEL", &cfg.Worker.Channel)
	env.boolean("OTEL_ENABLED", &cfg.Tracing.Enabled)
	env.str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	env.boolean("OTEL_EXPORTER_OTLP_INSECURE", &cfg.Tracing.Insecure)
	env.float("OTEL_SAMPLER_RATIO", &cfg.Tracing.SampleRatio)
	if env.err != nil {
		return cfg, env.err
	}

	cfg.Log.Development = cfg.IsDevelopment()
	return cfg, nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks the settings required to serve traffic.
func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if !c.IsDevelopment() && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters outside development"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLER_RATIO must be between 0 and 1"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.AnonPerDay <= 0 || c.RateLimit.UserPerDay <= 0) {
		errs = append(errs, errors.New("rate limits must be positive when enabled"))
	}
	return errors.Join(errs...)
}

type envReader struct {
	get func(string) string
	err error
}

func (r *envReader) str(key string, dst *string) {
	if v := r.get(key); v != "" {
		*dst = v
	}
}

func (r *envReader) list(key string, dst *[]string) {
	v := r.get(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (r *envReader) integer(key string, dst *int) {
	if v := r.get(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = n
	}
}

func (r *envReader) int32(key string, dst *int32) {
	if v := r.get(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = int32(n)
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	if v := r.get(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) float(key string, dst *float64) {
	if v := r.get(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) duration(key string, dst *time.Duration) {
	if v := r.get(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = d
	}
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
