package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Booking      ServiceConfig  `yaml:"booking"`
	Availability ServiceConfig  `yaml:"availability"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
	Rabbit       RabbitConfig   `yaml:"rabbit"`
	Saga         SagaConfig     `yaml:"saga"`
	Sweeper      SweeperConfig  `yaml:"sweeper"`
}

type ServiceConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitConfig struct {
	URL               string `yaml:"url"`
	Exchange          string `yaml:"exchange"`
	BookingQueue      string `yaml:"booking_queue"`
	AvailabilityQueue string `yaml:"availability_queue"`
	Prefetch          int    `yaml:"prefetch"`
}

type SagaConfig struct {
	HoldTTLSeconds        int `yaml:"hold_ttl_seconds"`
	IdempotencyTTLSeconds int `yaml:"idempotency_ttl_seconds"`
	ProviderLockSeconds   int `yaml:"provider_lock_seconds"`
}

type SweeperConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	BatchSize       int `yaml:"batch_size"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Rabbit.Exchange == "" {
		c.Rabbit.Exchange = "domain_events"
	}
	if c.Rabbit.BookingQueue == "" {
		c.Rabbit.BookingQueue = "booking_service_domain_events"
	}
	if c.Rabbit.AvailabilityQueue == "" {
		c.Rabbit.AvailabilityQueue = "availability_service_booking_events"
	}
	if c.Rabbit.Prefetch <= 0 {
		c.Rabbit.Prefetch = 50
	}
	if c.Saga.HoldTTLSeconds <= 0 {
		c.Saga.HoldTTLSeconds = 300
	}
	if c.Saga.IdempotencyTTLSeconds <= 0 {
		c.Saga.IdempotencyTTLSeconds = 3600
	}
	if c.Saga.ProviderLockSeconds <= 0 {
		c.Saga.ProviderLockSeconds = 5
	}
	if c.Sweeper.IntervalSeconds <= 0 {
		c.Sweeper.IntervalSeconds = 2
	}
	if c.Sweeper.BatchSize <= 0 {
		c.Sweeper.BatchSize = 50
	}
}
