package config

import (
	"errors"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort                int    `mapstructure:"APP_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	MongoURI               string `mapstructure:"MONGO_URI"`
	MongoDBName            string `mapstructure:"MONGO_DB_NAME"`
	PublishableKey         string `mapstructure:"STRIPE_PUBLISHABLE_KEY"`
	IntentProvider         string `mapstructure:"INTENT_PROVIDER"`
	StreamTokenSecret      string `mapstructure:"STREAM_TOKEN_SECRET"`
	StreamTokenTTLSec      int    `mapstructure:"STREAM_TOKEN_TTL_SEC"`
	WSMaxSessionSec        int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer         int    `mapstructure:"WS_OUTBOX_BUFFER"`
	CreateIntentRatePerMin int    `mapstructure:"CREATE_INTENT_RATE_PER_MIN"`
	CORSAllowOrigins       string `mapstructure:"CORS_ALLOW_ORIGINS"`
	RouteMetricsEnabled    bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled  bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	StaticDir              string `mapstructure:"STATIC_DIR"`
	PyroscopeAddr          string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
	DevMode                bool   `mapstructure:"DEV_MODE"`
}

// Validation errors returned by Config.Validate.
var (
	ErrAppPortRange              = errors.New("APP_PORT must be between 1 and 65535")
	ErrLogLevelEmpty             = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty            = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty             = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty          = errors.New("MONGO_DB_NAME cannot be empty")
	ErrIntentProviderUnsupported = errors.New("INTENT_PROVIDER must be local")
	ErrStreamSecretRequired      = errors.New("STREAM_TOKEN_SECRET is required outside DEV_MODE")
	ErrStreamSecretTooShort      = errors.New("STREAM_TOKEN_SECRET must be at least 32 characters")
	ErrStreamTokenTTL            = errors.New("STREAM_TOKEN_TTL_SEC must be greater than 0")
	ErrWSMaxSession              = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer            = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
	ErrCreateIntentRate          = errors.New("CREATE_INTENT_RATE_PER_MIN cannot be negative")
)

// devStreamSecret is only ever used when DEV_MODE=true and no secret was set.
const devStreamSecret = "dev-mode-stream-token-secret-not-for-production"

// MinStreamSecretLen is the shortest HS256 key accepted outside DEV_MODE.
const MinStreamSecretLen = 32

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "payments")
	v.SetDefault("STRIPE_PUBLISHABLE_KEY", "pk_test_xxx")
	v.SetDefault("INTENT_PROVIDER", "local")
	v.SetDefault("STREAM_TOKEN_SECRET", "")
	v.SetDefault("STREAM_TOKEN_TTL_SEC", 900)
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 64)
	v.SetDefault("CREATE_INTENT_RATE_PER_MIN", 30)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("STATIC_DIR", "./web-ui")
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")
	v.SetDefault("DEV_MODE", false)

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DevMode && cfg.StreamTokenSecret == "" {
		cfg.StreamTokenSecret = devStreamSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.IntentProvider != "local" {
		return ErrIntentProviderUnsupported
	}
	if c.StreamTokenSecret == "" {
		return ErrStreamSecretRequired
	}
	if !c.DevMode && len(c.StreamTokenSecret) < MinStreamSecretLen {
		return ErrStreamSecretTooShort
	}
	if c.StreamTokenTTLSec <= 0 {
		return ErrStreamTokenTTL
	}
	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSession
	}
	if c.WSOutboxBuffer <= 0 {
		return ErrWSOutboxBuffer
	}
	if c.CreateIntentRatePerMin < 0 {
		return ErrCreateIntentRate
	}
	return nil
}
