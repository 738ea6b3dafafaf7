package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the pothole service
type Config struct {
	// Database configuration
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int

	// Server configuration
	Port string

	// Telegram configuration
	TelegramToken  string
	TelegramChatID int64

	// GPS configuration
	SerialPort  string
	BaudRate    int
	SimulateGPS bool
	TrackSize   int
	GPSSpeedKMH float64

	// Deduplication configuration
	DedupRadiusMeters float64
	DedupWindowSec    int

	// Geocoding configuration
	GeocoderURL        string
	GeocodeTimeoutSec  int
	GeocodeWorkers     int
	GeocodeCacheFile   string

	// Video configuration
	VideoSource string
	FrameSkip   int
	ImageDir    string

	// Retention configuration
	RetentionDays int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "server"),
		DBPassword:     getEnv("DB_PASSWORD", "secret"),
		DBName:         getEnv("DB_NAME", "potholes"),
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 5),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Telegram defaults
		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: getInt64Env("TELEGRAM_CHAT_ID", 0),

		// GPS defaults
		SerialPort:  getEnv("GPS_SERIAL_PORT", "/dev/ttyUSB0"),
		BaudRate:    getIntEnv("GPS_BAUD_RATE", 9600),
		SimulateGPS: getBoolEnv("GPS_SIMULATION", true),
		TrackSize:   getIntEnv("GPS_TRACK_SIZE", 10),
		GPSSpeedKMH: getFloatEnv("GPS_SPEED_KMH", 30),

		// Deduplication defaults
		DedupRadiusMeters: getFloatEnv("DEDUP_RADIUS_METERS", 5),
		DedupWindowSec:    getIntEnv("DEDUP_WINDOW_SEC", 300),

		// Geocoding defaults
		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeoutSec: getIntEnv("GEOCODE_TIMEOUT_SEC", 3),
		GeocodeWorkers:    getIntEnv("GEOCODE_WORKERS", 2),
		GeocodeCacheFile:  getEnv("GEOCODE_CACHE_FILE", "data/geocoding_cache.json"),

		// Video defaults
		VideoSource: getEnv("VIDEO_SOURCE", ""),
		FrameSkip:   getIntEnv("FRAME_SKIP", 3),
		ImageDir:    getEnv("IMAGE_DIR", "data/images"),

		// Retention defaults
		RetentionDays: getIntEnv("RETENTION_DAYS", 30),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64Env gets an int64 environment variable or returns a default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
