// Package config собирает настройки сервиса: значения по умолчанию,
// необязательный файл конфигурации и переменные окружения HELPBOARD_*.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "HELPBOARD"

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	DB         DBConfig         `mapstructure:"db"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Log        LogConfig        `mapstructure:"log"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN - строка подключения для pgx и golang-migrate
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RabbitMQConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	AuditQueue string `mapstructure:"audit_queue"`
	// ReconnectDelay - начальная пауза перед переподключением воркера
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/",
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// RateLimitConfig - лимит на отклики и отзывы в окне на пользователя
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

type CleanupConfig struct {
	Schedule string `mapstructure:"schedule"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "helpboard",
			SSLMode:  "disable",
			MaxConns: 20,
			MinConns: 5,
		},
		RabbitMQ: RabbitMQConfig{
			Host:           "localhost",
			Port:           "5672",
			User:           "guest",
			Password:       "guest",
			AuditQueue:     "task_audit_logs",
			ReconnectDelay: 2 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		JWT: JWTConfig{
			Secret:     "change-me-in-production",
			Issuer:     "helpboard",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   20,
			Window:  time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Migrations: MigrationsConfig{
			Path: "migrations",
		},
		Cleanup: CleanupConfig{
			Schedule: "@hourly",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)

	v.SetDefault("db.host", d.DB.Host)
	v.SetDefault("db.port", d.DB.Port)
	v.SetDefault("db.user", d.DB.User)
	v.SetDefault("db.password", d.DB.Password)
	v.SetDefault("db.name", d.DB.Name)
	v.SetDefault("db.sslmode", d.DB.SSLMode)
	v.SetDefault("db.max_conns", d.DB.MaxConns)
	v.SetDefault("db.min_conns", d.DB.MinConns)

	v.SetDefault("rabbitmq.host", d.RabbitMQ.Host)
	v.SetDefault("rabbitmq.port", d.RabbitMQ.Port)
	v.SetDefault("rabbitmq.user", d.RabbitMQ.User)
	v.SetDefault("rabbitmq.password", d.RabbitMQ.Password)
	v.SetDefault("rabbitmq.audit_queue", d.RabbitMQ.AuditQueue)
	v.SetDefault("rabbitmq.reconnect_delay", d.RabbitMQ.ReconnectDelay)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("jwt.secret", d.JWT.Secret)
	v.SetDefault("jwt.issuer", d.JWT.Issuer)
	v.SetDefault("jwt.access_ttl", d.JWT.AccessTTL)
	v.SetDefault("jwt.refresh_ttl", d.JWT.RefreshTTL)

	v.SetDefault("ratelimit.enabled", d.RateLimit.Enabled)
	v.SetDefault("ratelimit.limit", d.RateLimit.Limit)
	v.SetDefault("ratelimit.window", d.RateLimit.Window)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	v.SetDefault("migrations.path", d.Migrations.Path)
	v.SetDefault("cleanup.schedule", d.Cleanup.Schedule)
}

// Load читает конфигурацию. path может быть пустым - тогда только
// значения по умолчанию и переменные окружения.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.DB.Host == "" || c.DB.Name == "" {
		errs = append(errs, errors.New("db.host and db.name are required"))
	}
	if c.DB.MaxConns < 1 || c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("db pool size is invalid: min %d, max %d", c.DB.MinConns, c.DB.MaxConns))
	}
	if c.RabbitMQ.AuditQueue == "" {
		errs = append(errs, errors.New("rabbitmq.audit_queue is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt ttl values must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("ratelimit.limit and ratelimit.window must be positive"))
	}
	if c.Cleanup.Schedule == "" {
		errs = append(errs, errors.New("cleanup.schedule is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
