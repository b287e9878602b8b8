package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port" envconfig:"SERVER_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" mapstructure:"max_header_bytes"`
	Maintenance    bool          `yaml:"maintenance" mapstructure:"maintenance" envconfig:"DASHBOARD_MAINTENANCE"`
	SecureCookies  bool          `yaml:"secure_cookies" mapstructure:"secure_cookies" envconfig:"SECURE_COOKIES"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" mapstructure:"port" envconfig:"DB_PORT"`
	User     string `yaml:"user" mapstructure:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `yaml:"name" mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

// DSN builds a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	AdminSecret   string        `yaml:"admin_secret" mapstructure:"admin_secret" envconfig:"ADMIN_JWT_SECRET"`
	PatientSecret string        `yaml:"patient_secret" mapstructure:"patient_secret" envconfig:"PATIENT_JWT_SECRET"`
	Expiry        time.Duration `yaml:"expiry" mapstructure:"expiry"`
}

type RedisConfig struct {
	URL          string `yaml:"url" mapstructure:"url" envconfig:"REDIS_URL"`
	EventChannel string `yaml:"event_channel" mapstructure:"event_channel"`
}

type ImageHostConfig struct {
	UploadURL string `yaml:"upload_url" mapstructure:"upload_url" envconfig:"IMAGE_HOST_UPLOAD_URL"`
	DeleteURL string `yaml:"delete_url" mapstructure:"delete_url" envconfig:"IMAGE_HOST_DELETE_URL"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key" envconfig:"IMAGE_HOST_API_KEY"`
	APISecret string `yaml:"api_secret" mapstructure:"api_secret" envconfig:"IMAGE_HOST_API_SECRET"`
	Folder    string `yaml:"folder" mapstructure:"folder"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `yaml:"port" mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `yaml:"username" mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `yaml:"from" mapstructure:"from"`
	ClinicTo string `yaml:"clinic_to" mapstructure:"clinic_to"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

type OutboxConfig struct {
	BatchSize    int           `yaml:"batch_size" mapstructure:"batch_size"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	JWT       JWTConfig       `yaml:"jwt" mapstructure:"jwt"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	ImageHost ImageHostConfig `yaml:"image_host" mapstructure:"image_host"`
	SMTP      SMTPConfig      `yaml:"smtp" mapstructure:"smtp"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Outbox    OutboxConfig    `yaml:"outbox" mapstructure:"outbox"`
}

func LoadConfig() (*Config, error) {
	return loadConfig(".", "./config", "/app", "/app/config")
}

func loadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Environment variables win over the file.
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process env overrides: %w", err)
	}

	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = 24 * time.Hour
	}
	if config.Outbox.BatchSize == 0 {
		config.Outbox.BatchSize = 50
	}
	if config.Outbox.PollInterval == 0 {
		config.Outbox.PollInterval = 5 * time.Second
	}

	return &config, nil
}
