package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIServerConfig holds the HTTP API server settings.
type APIServerConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         string        `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	CORS         CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	AppVersion string          `mapstructure:"APP_VERSION"`
	APIServer  APIServerConfig `mapstructure:"API_SERVER"`
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Storage    StorageConfig   `mapstructure:"STORAGE"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
	Redis      RedisConfig     `mapstructure:"REDIS"`
	Presence   PresenceConfig  `mapstructure:"PRESENCE"`
	Logger     LoggerConfig    `mapstructure:"LOGGER"`
}

// KafkaConfig holds configuration for Kafka. An empty broker list disables
// activity event publishing.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"BROKERS"`
	ClientID      string   `mapstructure:"CLIENT_ID"`
	ActivityTopic string   `mapstructure:"ACTIVITY_TOPIC"`
	ConsumerGroup string   `mapstructure:"CONSUMER_GROUP"`
	Protocol      string   `mapstructure:"PROTOCOL"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Brokers[0] != ""
}

// DatabaseConfig holds configuration for the database.
// TYPE is "postgres" or "memory"; the latter keeps everything in process and is
// meant for local development.
type DatabaseConfig struct {
	Type        string `mapstructure:"TYPE"`
	Host        string `mapstructure:"HOST"`
	Port        int    `mapstructure:"PORT"`
	User        string `mapstructure:"USER"`
	Password    string `mapstructure:"PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	SSLMode     string `mapstructure:"SSL_MODE"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
}

// StorageConfig holds configuration for uploaded media (avatars, post images, resumes).
type StorageConfig struct {
	LocalPath     string `mapstructure:"LOCAL_PATH"`
	BaseURL       string `mapstructure:"BASE_URL"`
	MaxFileSizeMB int64  `mapstructure:"MAX_FILE_SIZE_MB"`
}

// AuthConfig holds configuration for authentication (JWT).
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
	Issuer       string        `mapstructure:"ISSUER"`
}

// PresenceConfig controls how often last-activity is persisted and how long a
// user counts as online after it.
type PresenceConfig struct {
	Debounce     time.Duration `mapstructure:"DEBOUNCE"`
	OnlineWindow time.Duration `mapstructure:"ONLINE_WINDOW"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"LEVEL"`
	Encoding    string `mapstructure:"ENCODING"` // "json" or "console"
	Development bool   `mapstructure:"DEVELOPMENT"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "global-app")
	v.SetDefault("APP_VERSION", "0.1.0")

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8080")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	v.SetDefault("KAFKA.BROKERS", []string{})
	v.SetDefault("KAFKA.CLIENT_ID", "global-app")
	v.SetDefault("KAFKA.ACTIVITY_TOPIC", "global-app-activity")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "global-app-activity-worker")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "global_app")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.AUTO_MIGRATE", true)
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	v.SetDefault("STORAGE.LOCAL_PATH", "./uploads")
	v.SetDefault("STORAGE.BASE_URL", "/uploads")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 10)

	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.ISSUER", "global-app")

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("PRESENCE.DEBOUNCE", 2*time.Minute)
	v.SetDefault("PRESENCE.ONLINE_WINDOW", 5*time.Minute)

	v.SetDefault("LOGGER.LEVEL", "info")
	v.SetDefault("LOGGER.ENCODING", "json")
	v.SetDefault("LOGGER.DEVELOPMENT", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// SERVER_PORT style variables override nested keys.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	err = config.Validate()
	return
}

// Validate checks cross-field constraints that defaults alone cannot guarantee.
func (c Config) Validate() error {
	if c.Presence.Debounce <= 0 {
		return fmt.Errorf("presence debounce must be positive, got %s", c.Presence.Debounce)
	}
	if c.Presence.OnlineWindow <= c.Presence.Debounce {
		return fmt.Errorf("presence online window (%s) must exceed the debounce (%s)", c.Presence.OnlineWindow, c.Presence.Debounce)
	}
	switch c.Database.Type {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Auth.JWTSecretKey == "" {
		return fmt.Errorf("AUTH.JWT_SECRET_KEY must not be empty")
	}
	return nil
}
