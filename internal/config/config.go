// Package config reads the service configuration from environment variables.
// The process loads a .env file first (cmd/main.go), so every setting can come
// from either the environment or a local dotenv file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// TargetConfig holds the settings for one downstream forwarding target.
type TargetConfig struct {
	// Enabled is the administrative activation switch for the integration.
	Enabled bool
	// MarkWhenDisabled controls whether records are still flagged as
	// delivered while the integration is disabled. Defaults to true so that
	// enabling the integration later does not replay the whole backlog.
	MarkWhenDisabled bool
	// URL is the delivery endpoint.
	URL string
	// OffsetSeconds are the wall-clock seconds within each minute at which
	// the forwarding run fires.
	OffsetSeconds []int
}

// GaussConfig extends TargetConfig with the OAuth password-grant settings and
// the selection window for the position-snapshot relay.
type GaussConfig struct {
	TargetConfig
	AlarmURL string
	TokenURL string
	Username string
	Password string
	// Window is how far back unsent records are eligible for selection. Must
	// exceed the run interval or late-arriving records fall through the gap.
	Window time.Duration
}

// Config is the full service configuration.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTExpiry time.Duration

	// Credential the device platform uses on /api/auth/login. The password
	// is stored as a bcrypt hash.
	PlatformUser         string
	PlatformPasswordHash string

	AlarmTTL    time.Duration
	HTTPTimeout time.Duration

	Migtra TargetConfig
	Gauss  GaussConfig

	MQTTBrokerURL  string
	MQTTClientID   string
	MQTTGPSTopic   string
	MQTTAlarmTopic string
}

// Load builds a Config from the environment, applying defaults and
// validating the result.
func Load() (*Config, error) {
	migtraOffsets, err := getOffsets("MIGTRA_RUN_OFFSETS", []int{0, 30})
	if err != nil {
		return nil, err
	}
	gaussOffsets, err := getOffsets("GAUSS_RUN_OFFSETS", []int{10})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                 getenv("PORT", "8080"),
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDB:              getenv("MONGO_DB", "visionline_db"),
		JWTSecret:            getenv("JWT_SECRET", "default-secret-key-change-in-production"),
		JWTExpiry:            getDuration("JWT_EXPIRY", 24*time.Hour),
		PlatformUser:         getenv("PLATFORM_USER", "visionline"),
		PlatformPasswordHash: os.Getenv("PLATFORM_PASSWORD_HASH"),
		AlarmTTL:             getDuration("ALARM_CACHE_TTL", 5*time.Minute),
		HTTPTimeout:          getDuration("HTTP_TIMEOUT", 15*time.Second),
		Migtra: TargetConfig{
			Enabled:          getBool("MIGTRA_ENABLED", false),
			MarkWhenDisabled: getBool("MIGTRA_MARK_WHEN_DISABLED", true),
			URL:              os.Getenv("MIGTRA_URL"),
			OffsetSeconds:    migtraOffsets,
		},
		Gauss: GaussConfig{
			TargetConfig: TargetConfig{
				Enabled:          getBool("GAUSS_ENABLED", false),
				MarkWhenDisabled: getBool("GAUSS_MARK_WHEN_DISABLED", true),
				URL:              os.Getenv("GAUSS_URL"),
				OffsetSeconds:    gaussOffsets,
			},
			AlarmURL: os.Getenv("GAUSS_ALARM_URL"),
			TokenURL: os.Getenv("GAUSS_TOKEN_URL"),
			Username: os.Getenv("GAUSS_USERNAME"),
			Password: os.Getenv("GAUSS_PASSWORD"),
			Window:   getDuration("GAUSS_WINDOW", 3*time.Minute),
		},
		MQTTBrokerURL:  os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:   getenv("MQTT_CLIENT_ID", "visionline-bridge"),
		MQTTGPSTopic:   getenv("MQTT_GPS_TOPIC", "visionline/gps"),
		MQTTAlarmTopic: getenv("MQTT_ALARM_TOPIC", "visionline/alarm"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.Migtra.Enabled && c.Migtra.URL == "" {
		return fmt.Errorf("MIGTRA_URL is required when MIGTRA_ENABLED is set")
	}
	if c.Gauss.Enabled {
		if c.Gauss.URL == "" {
			return fmt.Errorf("GAUSS_URL is required when GAUSS_ENABLED is set")
		}
		if c.Gauss.TokenURL == "" || c.Gauss.Username == "" || c.Gauss.Password == "" {
			return fmt.Errorf("GAUSS_TOKEN_URL, GAUSS_USERNAME and GAUSS_PASSWORD are required when GAUSS_ENABLED is set")
		}
	}
	if c.Gauss.Window <= 0 {
		return fmt.Errorf("GAUSS_WINDOW must be positive")
	}
	if err := validOffsets("MIGTRA_RUN_OFFSETS", c.Migtra.OffsetSeconds); err != nil {
		return err
	}
	if err := validOffsets("GAUSS_RUN_OFFSETS", c.Gauss.OffsetSeconds); err != nil {
		return err
	}
	if c.AlarmTTL <= 0 {
		return fmt.Errorf("ALARM_CACHE_TTL must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getOffsets parses a comma-separated list of wall-clock seconds, e.g.
// "0,20,40". An unset variable keeps the fallback cadence.
func getOffsets(key string, fallback []int) ([]int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid offset %q", key, part)
		}
		out = append(out, n)
	}
	return out, nil
}

func validOffsets(key string, offsets []int) error {
	if len(offsets) == 0 {
		return fmt.Errorf("%s must list at least one offset", key)
	}
	for _, o := range offsets {
		if o < 0 || o >= 60 {
			return fmt.Errorf("%s: offset %d out of range [0,60)", key, o)
		}
	}
	return nil
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}
