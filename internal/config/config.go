package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Logging holds the LOG_LEVEL and LOG_FORMAT settings shared by both programs.
type Logging struct {
	Level  string
	Format string
}

// Config holds all weather service settings, populated from environment variables.
type Config struct {
	HTTPAddr          string
	Log               Logging
	ShutdownTimeout   time.Duration
	CORSAllowedOrigin string

	// OpenWeather upstream configuration.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherTimeout time.Duration

	// Snapshot cache configuration.
	CacheSize int
	CacheTTL  time.Duration

	// Lookup events. An empty broker list disables publishing.
	KafkaBrokers       []string
	KafkaLookupTopic   string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// EventsEnabled reports whether lookup events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from the environment (after an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	loadDotEnv()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parsePositiveDuration("OPENWEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "2m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("WEATHER_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		Log:               loadLogging(),
		ShutdownTimeout:   shutdownTimeout,
		CORSAllowedOrigin: sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"), "/"),
		OpenWeatherTimeout: upstreamTimeout,

		CacheSize: cacheSize,
		CacheTTL:  cacheTTL,

		KafkaBrokers:       brokers,
		KafkaLookupTopic:   sharedcfg.EnvOrDefault("KAFKA_LOOKUP_TOPIC", "weather-lookups"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if cfg.EventsEnabled() && cfg.KafkaLookupTopic == "" {
		return nil, errors.New("KAFKA_LOOKUP_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// ClientConfig holds the terminal client settings.
type ClientConfig struct {
	WeatherAPIURL string
	HTTPTimeout   time.Duration
	Log           Logging
	LogFile       string

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderRate      float64 // requests per second
	GeocoderCacheSize int

	GeolocationURL     string
	GeolocationEnabled bool

	DefaultCity string
	Units       string
}

// LoadClient reads the terminal client configuration. Command-line flags are
// applied on top by the caller.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	rate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODER_RATE", "1"), 64)
	if err != nil || rate <= 0 {
		return nil, errors.New("invalid GEOCODER_RATE")
	}

	cacheSize, err := parsePositiveInt("GEOCODER_CACHE_SIZE", 200)
	if err != nil {
		return nil, err
	}

	geoEnabled := true
	if v := os.Getenv("GEOLOCATION_ENABLED"); v != "" {
		geoEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid GEOLOCATION_ENABLED")
		}
	}

	cfg := &ClientConfig{
		WeatherAPIURL: strings.TrimRight(sharedcfg.EnvOrDefault("WEATHER_API_URL", "http://localhost:8080"), "/"),
		HTTPTimeout:   httpTimeout,
		Log:           loadLogging(),
		LogFile:       os.Getenv("LOG_FILE"),

		GeocoderURL:       strings.TrimRight(sharedcfg.EnvOrDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeocoderUserAgent: sharedcfg.EnvOrDefault("GEOCODER_USER_AGENT", "weather-lookup/1.0 (+https://github.com/couchcryptid/weather-lookup)"),
		GeocoderRate:      rate,
		GeocoderCacheSize: cacheSize,

		GeolocationURL:     strings.TrimRight(sharedcfg.EnvOrDefault("GEOLOCATION_URL", "http://ip-api.com"), "/"),
		GeolocationEnabled: geoEnabled,

		DefaultCity: sharedcfg.EnvOrDefault("DEFAULT_CITY", "London"),
		Units:       sharedcfg.EnvOrDefault("UNITS", "metric"),
	}

	if strings.TrimSpace(cfg.DefaultCity) == "" {
		return nil, errors.New("DEFAULT_CITY must not be blank")
	}
	switch strings.ToLower(cfg.Units) {
	case "metric", "imperial":
	default:
		return nil, fmt.Errorf("invalid UNITS %q", cfg.Units)
	}

	return cfg, nil
}

func loadLogging() Logging {
	return Logging{
		Level:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		Format: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}
}

// loadDotEnv loads .env from the working directory if present. Variables
// already set in the environment win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
