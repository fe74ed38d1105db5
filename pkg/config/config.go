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

// Config is built once at startup and handed to every component. Missing
// required values surface here, before any record is processed.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	CORS     CORSConfig
	Auth     AuthConfig
	SIGAA    SIGAAConfig
	Sync     SyncConfig
	Naming   NamingConfig
}

type CORSConfig struct {
	AllowedOrigins []string
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

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig guards the operator-facing integration endpoints.
type AuthConfig struct {
	JWTSecret string
}

// SIGAAConfig holds credentials for the institutional records API.
type SIGAAConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// SyncConfig carries the reconciliation settings: role ids, designated field
// names, base category, archiving.
type SyncConfig struct {
	TeacherRoleID       string
	StudentRoleID       string
	CPFFieldName        string
	TermFieldName       string
	MetadataFieldName   string
	BaseCategoryID      string
	ArchiveCategoryName string
	ArchivePageSize     int
	RequireTeacher      bool
	RunLockTTL          time.Duration
	Workers             int
}

// NamingConfig configures the display-name title caser per deployment locale.
type NamingConfig struct {
	LowercaseWords    []string
	UppercaseAcronyms []string
}

// Load reads configuration from the environment (and an optional .env file).
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

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS"))}

	cfg.Auth = AuthConfig{JWTSecret: v.GetString("JWT_SECRET")}

	cfg.SIGAA = SIGAAConfig{
		BaseURL:      v.GetString("SIGAA_API_BASE_URL"),
		ClientID:     v.GetString("SIGAA_API_CLIENT_ID"),
		ClientSecret: v.GetString("SIGAA_API_CLIENT_SECRET"),
		Timeout:      parseDuration(v.GetString("SIGAA_API_TIMEOUT"), 60*time.Second),
	}

	cfg.Sync = SyncConfig{
		TeacherRoleID:       v.GetString("SIGAA_TEACHER_ROLE_ID"),
		StudentRoleID:       v.GetString("SIGAA_STUDENT_ROLE_ID"),
		CPFFieldName:        v.GetString("SIGAA_CPF_FIELD_NAME"),
		TermFieldName:       v.GetString("SIGAA_TERM_FIELD_NAME"),
		MetadataFieldName:   v.GetString("SIGAA_METADATA_FIELD_NAME"),
		BaseCategoryID:      v.GetString("SIGAA_BASE_CATEGORY_ID"),
		ArchiveCategoryName: v.GetString("SIGAA_ARCHIVE_CATEGORY_NAME"),
		ArchivePageSize:     v.GetInt("SIGAA_ARCHIVE_PAGE_SIZE"),
		RequireTeacher:      v.GetBool("SIGAA_REQUIRE_TEACHER"),
		RunLockTTL:          parseDuration(v.GetString("SIGAA_RUN_LOCK_TTL"), 2*time.Hour),
		Workers:             v.GetInt("SIGAA_SYNC_WORKERS"),
	}

	cfg.Naming = NamingConfig{
		LowercaseWords:    splitAndTrim(v.GetString("SIGAA_NAME_LOWERCASE_WORDS")),
		UppercaseAcronyms: splitAndTrim(v.GetString("SIGAA_NAME_UPPERCASE_ACRONYMS")),
	}

	return cfg, nil
}

// Validate reports every required setting that is absent, by name. The archive
// category name and base category id are deliberately defaulted instead.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"SIGAA_API_BASE_URL", c.SIGAA.BaseURL},
		{"SIGAA_API_CLIENT_ID", c.SIGAA.ClientID},
		{"SIGAA_API_CLIENT_SECRET", c.SIGAA.ClientSecret},
		{"SIGAA_TEACHER_ROLE_ID", c.Sync.TeacherRoleID},
		{"SIGAA_STUDENT_ROLE_ID", c.Sync.StudentRoleID},
		{"SIGAA_CPF_FIELD_NAME", c.Sync.CPFFieldName},
		{"SIGAA_TERM_FIELD_NAME", c.Sync.TermFieldName},
		{"SIGAA_METADATA_FIELD_NAME", c.Sync.MetadataFieldName},
	}

	var missing []string
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, item.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "sigaa_sync")
	v.SetDefault("DB_SSL_MODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SIGAA_ARCHIVE_CATEGORY_NAME", "Disciplinas antigas")
	v.SetDefault("SIGAA_BASE_CATEGORY_ID", "")
	v.SetDefault("SIGAA_ARCHIVE_PAGE_SIZE", 50)
	v.SetDefault("SIGAA_REQUIRE_TEACHER", true)
	v.SetDefault("SIGAA_SYNC_WORKERS", 1)
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
