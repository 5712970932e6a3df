package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Departures DeparturesConfig
	Leave      LeaveConfig
	Summary    SummaryConfig
	Reports    ReportsConfig
	Signatures SignaturesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig holds the check-in/check-out time windows. Start and end
// are HH:MM strings converted to minutes since midnight; unparseable values
// fall back to 07:00-11:00 for check-in and 12:00 for the earliest check-out.
type AttendanceConfig struct {
	CheckInStartMin  int
	CheckInEndMin    int
	CheckOutStartMin int
}

// DeparturesConfig governs the temporary-departure ledger.
type DeparturesConfig struct {
	// SingleOpen rejects opening a departure while another one for the same
	// employee is still open. Disabling it restores the legacy behaviour
	// where several departures can be open at once and returns close the
	// latest one.
	SingleOpen bool
}

// LeaveConfig governs leave-record expansion.
type LeaveConfig struct {
	// CountWeekends keeps weekend days inside a created congé range. Weekend
	// rows are always hidden at aggregation time regardless of this setting.
	CountWeekends bool
}

// SummaryConfig tunes monthly-summary caching.
type SummaryConfig struct {
	CacheTTL time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	StorageDir        string
	WorkerConcurrency int
	WorkerRetries     int
	CleanupInterval   time.Duration
	FileTTL           time.Duration
}

// SignaturesConfig controls where signature images are persisted and how
// their public URLs are formed.
type SignaturesConfig struct {
	StorageDir string
	BaseURL    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		CheckInStartMin:  ParseTimeOfDay(v.GetString("CHECKIN_START"), 7*60),
		CheckInEndMin:    ParseTimeOfDay(v.GetString("CHECKIN_END"), 11*60),
		CheckOutStartMin: ParseTimeOfDay(v.GetString("CHECKOUT_START"), 12*60),
	}

	cfg.Departures = DeparturesConfig{
		SingleOpen: v.GetBool("DEPARTURES_SINGLE_OPEN"),
	}

	cfg.Leave = LeaveConfig{
		CountWeekends: v.GetBool("LEAVE_COUNT_WEEKENDS"),
	}

	cfg.Summary = SummaryConfig{
		CacheTTL: parseDuration(v.GetString("SUMMARY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		FileTTL:           parseDuration(v.GetString("REPORTS_FILE_TTL"), 24*time.Hour),
	}

	cfg.Signatures = SignaturesConfig{
		StorageDir: v.GetString("SIGNATURES_STORAGE_DIR"),
		BaseURL:    strings.TrimRight(v.GetString("SIGNATURES_BASE_URL"), "/"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pointage")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CHECKIN_START", "07:00")
	v.SetDefault("CHECKIN_END", "11:00")
	v.SetDefault("CHECKOUT_START", "12:00")

	v.SetDefault("DEPARTURES_SINGLE_OPEN", true)
	v.SetDefault("LEAVE_COUNT_WEEKENDS", true)
	v.SetDefault("SUMMARY_CACHE_TTL", "5m")

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_FILE_TTL", "24h")

	v.SetDefault("SIGNATURES_STORAGE_DIR", "./signatures")
	v.SetDefault("SIGNATURES_BASE_URL", "/storage/signatures")
}

// ParseTimeOfDay converts an HH:MM string into minutes since midnight,
// returning fallback when the value does not parse.
func ParseTimeOfDay(raw string, fallback int) int {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed.Hour()*60 + parsed.Minute()
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
