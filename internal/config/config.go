package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"clinicbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig        `yaml:"app"`
	HTTP        HTTPConfig       `yaml:"http"`
	GRPC        GRPCConfig       `yaml:"grpc"`
	Database    DatabaseConfig   `yaml:"database"`
	Redis       RedisConfig      `yaml:"redis"`
	Auth        AuthConfig       `yaml:"auth"`
	Payments    PaymentsConfig   `yaml:"payments"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Logging     LoggingConfig    `yaml:"logging"`
	CatalogPath string           `yaml:"catalog_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Enabled    bool      `yaml:"enabled"`
	Port       int       `yaml:"port"`
	Reflection bool      `yaml:"reflection"`
	TLS        TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type DatabaseConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type PaymentsConfig struct {
	StripeSecretKey string        `yaml:"stripe_secret_key"`
	BaseURL         string        `yaml:"base_url"`
	Currency        string        `yaml:"currency"`
	Timeout         time.Duration `yaml:"timeout"`
	LockTTL         time.Duration `yaml:"lock_ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads the YAML config, expanding ${VAR} references from the
// environment after an optional .env file has been loaded.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.GRPC.Enabled && c.GRPC.Port == c.HTTP.Port {
		return fmt.Errorf("grpc and http cannot share port %d", c.HTTP.Port)
	}

	return nil
}

// ValidateCatalog rejects unnamed, duplicate or slot-less treatments.
func ValidateCatalog(options []models.AppointmentOption) error {
	names := make(map[string]bool, len(options))
	for _, opt := range options {
		name := strings.TrimSpace(opt.Name)
		if name == "" {
			return errors.New("appointment option has empty name")
		}
		if names[name] {
			return fmt.Errorf("duplicate appointment option: %s", name)
		}
		names[name] = true

		if opt.Price < 0 {
			return fmt.Errorf("appointment option %q has negative price", name)
		}

		slots := make(map[string]bool, len(opt.Slots))
		for _, slot := range opt.Slots {
			if slots[slot] {
				return fmt.Errorf("appointment option %q has duplicate slot %q", name, slot)
			}
			slots[slot] = true
		}
	}
	return nil
}

// LoadCatalog reads the appointment option seed file.
func LoadCatalog(path string) ([]models.AppointmentOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog struct {
		Options []models.AppointmentOption `yaml:"appointment_options"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := ValidateCatalog(catalog.Options); err != nil {
		return nil, err
	}
	return catalog.Options, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "clinicbook"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 5001
	}
	if c.Database.Timeout == 0 {
		c.Database.Timeout = models.DefaultStoreTimeout * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = models.DefaultTokenTTL * time.Second
	}
	if c.Payments.BaseURL == "" {
		c.Payments.BaseURL = "https://api.stripe.com"
	}
	if c.Payments.Currency == "" {
		c.Payments.Currency = "usd"
	}
	if c.Payments.Timeout == 0 {
		c.Payments.Timeout = models.DefaultGatewayTimeout * time.Second
	}
	if c.Payments.LockTTL == 0 {
		c.Payments.LockTTL = models.PaymentLockTTL * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.CatalogPath == "" {
		c.CatalogPath = "configs/appointment_options.yaml"
	}
}
