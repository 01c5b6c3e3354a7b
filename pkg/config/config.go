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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	SpecReg  SpecRegConfig
	Sections SectioningConfig
	Cache    CacheConfig
	Reports  ReportsConfig
	Batch    BatchConfig
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

// SpecRegConfig points the bridge at the external special-registration site.
type SpecRegConfig struct {
	Enabled         bool
	Mode            string
	Site            string
	APIKey          string
	CheckPath       string
	ValidationPath  string
	SubmitPath      string
	EligibilityPath string
	AllStatusesPath string
	DashboardURL    string
	RequestTimeout  time.Duration
}

// SectioningConfig tunes the section-assignment search and credit checks.
type SectioningConfig struct {
	MultiCriteria       bool
	LinkedMustBeUsed    bool
	MaxCreditDefault    float64
	MaxCreditCheck      float64
	MinCreditCheck      float64
	ForceRevalidation   bool
	ValidationDisabled  bool
	RevalidationWorkers int
	RevalidationRetries int
}

// CacheConfig governs the student state cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ReportsConfig configures override status report export. ArchiveDir, when
// set, keeps a copy of every rendered report on disk.
type ReportsConfig struct {
	Enabled    bool
	ArchiveDir string
}

// BatchConfig schedules the periodic status reconciliation sweep.
type BatchConfig struct {
	Enabled  bool
	CronSpec string
	Size     int
	TermID   int64
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

	cfg.SpecReg = SpecRegConfig{
		Enabled:         v.GetBool("SPECREG_ENABLED"),
		Mode:            v.GetString("SPECREG_MODE"),
		Site:            v.GetString("SPECREG_SITE"),
		APIKey:          v.GetString("SPECREG_API_KEY"),
		CheckPath:       v.GetString("SPECREG_CHECK_PATH"),
		ValidationPath:  v.GetString("SPECREG_VALIDATION_PATH"),
		SubmitPath:      v.GetString("SPECREG_SUBMIT_PATH"),
		EligibilityPath: v.GetString("SPECREG_ELIGIBILITY_PATH"),
		AllStatusesPath: v.GetString("SPECREG_ALL_STATUSES_PATH"),
		DashboardURL:    v.GetString("SPECREG_DASHBOARD_URL"),
		RequestTimeout:  parseDuration(v.GetString("SPECREG_REQUEST_TIMEOUT"), 30*time.Second),
	}

	cfg.Sections = SectioningConfig{
		MultiCriteria:       v.GetBool("SECTIONING_MULTI_CRITERIA"),
		LinkedMustBeUsed:    v.GetBool("SECTIONING_LINKED_MUST_BE_USED"),
		MaxCreditDefault:    v.GetFloat64("SECTIONING_MAX_CREDIT_DEFAULT"),
		MaxCreditCheck:      v.GetFloat64("SECTIONING_MAX_CREDIT_CHECK"),
		MinCreditCheck:      v.GetFloat64("SECTIONING_MIN_CREDIT_CHECK"),
		ForceRevalidation:   v.GetBool("SECTIONING_FORCE_REVALIDATION"),
		ValidationDisabled:  v.GetBool("SECTIONING_VALIDATION_DISABLED"),
		RevalidationWorkers: v.GetInt("REVALIDATION_WORKERS"),
		RevalidationRetries: v.GetInt("REVALIDATION_RETRIES"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		Enabled:    v.GetBool("ENABLE_REPORTS"),
		ArchiveDir: v.GetString("REPORTS_ARCHIVE_DIR"),
	}

	batchSize := v.GetInt("BATCH_SIZE")
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}
	cfg.Batch = BatchConfig{
		Enabled:  v.GetBool("BATCH_ENABLED"),
		CronSpec: v.GetString("BATCH_CRON"),
		Size:     batchSize,
		TermID:   v.GetInt64("BATCH_TERM_ID"),
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
	v.SetDefault("DB_NAME", "specreg_bridge")
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

	v.SetDefault("SPECREG_ENABLED", false)
	v.SetDefault("SPECREG_MODE", "REG")
	v.SetDefault("SPECREG_SITE", "")
	v.SetDefault("SPECREG_API_KEY", "")
	v.SetDefault("SPECREG_CHECK_PATH", "/checkSpecialRegistrationStatus")
	v.SetDefault("SPECREG_VALIDATION_PATH", "/checkRestrictionsForSTAR")
	v.SetDefault("SPECREG_SUBMIT_PATH", "/submitRegistration")
	v.SetDefault("SPECREG_ELIGIBILITY_PATH", "/checkEligibility")
	v.SetDefault("SPECREG_ALL_STATUSES_PATH", "/checkAllSpecialRegistrationStatus")
	v.SetDefault("SPECREG_DASHBOARD_URL", "")
	v.SetDefault("SPECREG_REQUEST_TIMEOUT", "30s")

	v.SetDefault("SECTIONING_MULTI_CRITERIA", true)
	v.SetDefault("SECTIONING_LINKED_MUST_BE_USED", false)
	v.SetDefault("SECTIONING_MAX_CREDIT_DEFAULT", 18)
	v.SetDefault("SECTIONING_MAX_CREDIT_CHECK", 0)
	v.SetDefault("SECTIONING_MIN_CREDIT_CHECK", 0)
	v.SetDefault("SECTIONING_FORCE_REVALIDATION", false)
	v.SetDefault("SECTIONING_VALIDATION_DISABLED", false)
	v.SetDefault("REVALIDATION_WORKERS", 1)
	v.SetDefault("REVALIDATION_RETRIES", 3)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("ENABLE_REPORTS", false)
	v.SetDefault("REPORTS_ARCHIVE_DIR", "")

	v.SetDefault("BATCH_ENABLED", false)
	v.SetDefault("BATCH_CRON", "0 30 2 * * *")
	v.SetDefault("BATCH_SIZE", 100)
	v.SetDefault("BATCH_TERM_ID", 0)
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
