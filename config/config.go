package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Session  SessionConfig  `yaml:"session"`
	SeatMap  SeatMapConfig  `yaml:"seatmap"`
	Search   SearchConfig   `yaml:"search"`
	Duffel   DuffelConfig   `yaml:"duffel"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
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

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
	// SeedSampleOffer places the placeholder offer into new sessions.
	SeedSampleOffer bool `yaml:"seed_sample_offer"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Seat map regeneration policies.
const (
	RegeneratePerVisit   = "per_visit"
	RegeneratePerSession = "per_session"
)

type SeatMapConfig struct {
	Regeneration  string  `yaml:"regeneration"`
	OccupancyRate float64 `yaml:"occupancy_rate"`
}

type SearchConfig struct {
	CacheTTLSeconds int  `yaml:"cache_ttl_seconds"`
	MockFallback    bool `yaml:"mock_fallback"`
}

func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

type DuffelConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	Version        string `yaml:"version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StripeConfig struct {
	BaseURL        string `yaml:"base_url"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type BookingConfig struct {
	HoldTTLMinutes         int `yaml:"hold_ttl_minutes"`
	CheckoutLockTTLSeconds int `yaml:"checkout_lock_ttl_seconds"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the YAML file at path, then applies .env and process
// environment overrides for secrets.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the values used for keys missing from the config file.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		GRPC: GRPCConfig{Address: ":9090"},
		Session: SessionConfig{
			TTLMinutes:      120,
			SeedSampleOffer: true,
		},
		SeatMap: SeatMapConfig{
			Regeneration:  RegeneratePerVisit,
			OccupancyRate: 0.3,
		},
		Search: SearchConfig{
			CacheTTLSeconds: 300,
			MockFallback:    true,
		},
		Duffel: DuffelConfig{
			BaseURL:        "https://api.duffel.com",
			Version:        "v2",
			TimeoutSeconds: 30,
		},
		Stripe: StripeConfig{
			BaseURL:        "https://api.stripe.com",
			TimeoutSeconds: 30,
		},
		Booking: BookingConfig{
			HoldTTLMinutes:         30,
			CheckoutLockTTLSeconds: 60,
		},
		Worker: WorkerConfig{ExpirationSweepMinutes: 1},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func (c *Config) Validate() error {
	switch c.SeatMap.Regeneration {
	case RegeneratePerVisit, RegeneratePerSession:
	default:
		return fmt.Errorf("invalid seatmap.regeneration %q", c.SeatMap.Regeneration)
	}
	if c.SeatMap.OccupancyRate < 0 || c.SeatMap.OccupancyRate > 1 {
		return fmt.Errorf("seatmap.occupancy_rate must be within [0, 1], got %v", c.SeatMap.OccupancyRate)
	}
	if c.Session.TTLMinutes <= 0 {
		return errors.New("session.ttl_minutes must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DUFFEL_ACCESS_TOKEN"); v != "" {
		cfg.Duffel.AccessToken = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SEATMAP_REGENERATION"); v != "" {
		cfg.SeatMap.Regeneration = v
	}
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.TTLMinutes = n
		}
	}
}
