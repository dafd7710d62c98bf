package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	JWT      JWTConfig
	Notify   NotifyConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
}

type FirebaseConfig struct {
	// Enabled selects the Firestore-backed item store. When false the
	// service runs on the built-in sample catalog.
	Enabled           bool
	ProjectID         string
	CredentialsPath   string
	FirestoreDatabase string
	// Emulator support for integration testing
	UseEmulator           bool
	EmulatorAuthHost      string
	EmulatorFirestoreHost string
}

type StorageConfig struct {
	Bucket string // bucket attachment URLs must point into
}

type JWTConfig struct {
	SigningKey string // Secret key for JWT signing
	Issuer     string // JWT issuer claim
	Expiration time.Duration
}

type NotifyConfig struct {
	// Brokers lists the Kafka brokers claim events are published to. Empty
	// disables publishing.
	Brokers    []string
	Topic      string
	WebhookURL string // where cmd/notifier delivers events; empty logs them
}

type LogConfig struct {
	Level  string
	Format string
}

// Load returns application configuration from the environment and an
// optional .env file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("ENV"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Firebase: FirebaseConfig{
			Enabled:               v.GetBool("FIREBASE_ENABLED"),
			ProjectID:             v.GetString("FIREBASE_PROJECT_ID"),
			CredentialsPath:       v.GetString("FIREBASE_CREDENTIALS_PATH"),
			FirestoreDatabase:     v.GetString("FIRESTORE_DATABASE"),
			UseEmulator:           v.GetBool("USE_FIREBASE_EMULATOR"),
			EmulatorAuthHost:      v.GetString("FIREBASE_AUTH_EMULATOR_HOST"),
			EmulatorFirestoreHost: v.GetString("FIRESTORE_EMULATOR_HOST"),
		},
		Storage: StorageConfig{
			Bucket: strings.TrimSpace(v.GetString("FIREBASE_STORAGE_BUCKET")),
		},
		JWT: JWTConfig{
			SigningKey: v.GetString("JWT_SIGNING_KEY"),
			Issuer:     v.GetString("JWT_ISSUER"),
			Expiration: v.GetDuration("JWT_EXPIRATION"),
		},
		Notify: NotifyConfig{
			Brokers:    splitList(v.GetString("KAFKA_BROKERS")),
			Topic:      v.GetString("NOTIFY_TOPIC"),
			WebhookURL: v.GetString("NOTIFY_WEBHOOK_URL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

func (c *Config) validate() error {
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Firebase.Enabled && c.Firebase.ProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required when FIREBASE_ENABLED is set")
	}
	if c.IsProduction() && !c.Firebase.Enabled && c.JWT.SigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required in production without Firebase")
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("REQUEST_TIMEOUT", "60s")

	v.SetDefault("FIREBASE_ENABLED", false)
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("FIRESTORE_DATABASE", "(default)")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("USE_FIREBASE_EMULATOR", false)
	v.SetDefault("FIREBASE_AUTH_EMULATOR_HOST", "localhost:9099")
	v.SetDefault("FIRESTORE_EMULATOR_HOST", "localhost:8080")

	v.SetDefault("JWT_SIGNING_KEY", "")
	v.SetDefault("JWT_ISSUER", "lostfound.jredh.dev")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("NOTIFY_TOPIC", "lostfound-claim-events")
	v.SetDefault("NOTIFY_WEBHOOK_URL", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}
