package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"infinite-experiment/kontrollburo/internal/lifecycle"
)

// Config is the full environment-driven configuration surface of the service.
type Config struct {
	AppEnv string

	// External endpoints
	SessionLogBaseURL string
	RegistryBaseURL   string
	RegistryAPIKey    string
	NotifierBaseURL   string
	DatasetBaseURL    string

	// Lifecycle thresholds per tracker type
	Endorsement lifecycle.Thresholds
	Roster      lifecycle.Thresholds

	// WaitingListWindowDays is the lookback for the waiting-list hours read.
	WaitingListWindowDays int

	// Scheduler knobs
	BatchSize       int
	InterBatchPause time.Duration
	SyncInterval    time.Duration
	JobsEnabled     bool

	// External call policy
	RetryAttempts   int
	RetryDelay      time.Duration
	HTTPTimeout     time.Duration
	SessionLogRate  float64
	SessionLogBurst int

	// Policy cache
	PolicyCacheTTL time.Duration
	PolicyFIRs     []string

	// Auth
	JWTSecret string
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		AppEnv: getEnv("APP_ENV", "development"),

		SessionLogBaseURL: getEnv("VATSIM_API_BASE_URL", "https://api.vatsim.net/api"),
		RegistryBaseURL:   getEnv("REGISTRY_BASE_URL", "http://localhost:8090"),
		RegistryAPIKey:    getEnv("REGISTRY_API_KEY", ""),
		NotifierBaseURL:   getEnv("NOTIFIER_BASE_URL", "http://localhost:8091"),
		DatasetBaseURL:    getEnv("DATASET_BASE_URL", ""),

		Endorsement: lifecycle.Thresholds{
			MinMinutes:         getEnvInt("ENDORSEMENT_MIN_MINUTES", 180),
			GracePeriodDays:    getEnvInt("ENDORSEMENT_GRACE_DAYS", 150),
			RemovalWarningDays: getEnvInt("ENDORSEMENT_WARNING_DAYS", 31),
			WindowDays:         getEnvInt("ENDORSEMENT_WINDOW_DAYS", 180),
		},
		Roster: lifecycle.Thresholds{
			MinMinutes:         getEnvInt("ROSTER_MIN_MINUTES", 30),
			GracePeriodDays:    getEnvInt("ROSTER_GRACE_DAYS", 150),
			RemovalWarningDays: getEnvInt("ROSTER_WARNING_DAYS", 31),
			WindowDays:         getEnvInt("ROSTER_WINDOW_DAYS", 365),
		},
		WaitingListWindowDays: getEnvInt("WAITING_LIST_WINDOW_DAYS", 60),

		BatchSize:       getEnvInt("SYNC_BATCH_SIZE", 10),
		InterBatchPause: getEnvDuration("SYNC_BATCH_PAUSE", 30*time.Second),
		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 1*time.Hour),
		JobsEnabled:     getEnv("JOBS_ENABLED", "true") == "true",

		RetryAttempts:   getEnvInt("API_RETRY_ATTEMPTS", 3),
		RetryDelay:      getEnvDuration("API_RETRY_DELAY", 5*time.Second),
		HTTPTimeout:     getEnvDuration("API_TIMEOUT", 10*time.Second),
		SessionLogRate:  getEnvFloat("SESSION_LOG_RATE", 1),
		SessionLogBurst: getEnvInt("SESSION_LOG_BURST", 2),

		PolicyCacheTTL: getEnvDuration("POLICY_CACHE_TTL", 15*time.Minute),
		PolicyFIRs:     splitCSV(getEnv("POLICY_FIRS", "EDGG,EDMM,EDWW")),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
