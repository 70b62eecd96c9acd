package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Campaign CampaignConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	LLM      LLMConfig
	Webhook  WebhookConfig
	Admin    AdminConfig
	CRM      CRMConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// CampaignConfig points at the hot-reloadable YAML files.
type CampaignConfig struct {
	CampaignPath  string
	TemplatesPath string
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory demo store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// Redis issuance backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// LLMConfig bounds the detection fallback. An empty APIKey disables the
// LLM tier entirely.
type LLMConfig struct {
	APIKey              string
	BaseURL             string
	Model               string
	MaxAttempts         int
	PerAttemptTimeoutMS int
	TotalBudgetMS       int
}

// WebhookConfig carries per-platform signing secrets. An empty secret skips
// verification for that platform.
type WebhookConfig struct {
	InstagramSecret string
	TikTokSecret    string
	WhatsAppSecret  string
}

// AdminConfig guards the administrative endpoints.
type AdminConfig struct {
	APIKey          string
	JWTSecret       string
	TokenTTLMinutes int
}

// CRMConfig holds the lead notification endpoint.
type CRMConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "discount-agent"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Campaign: CampaignConfig{
			CampaignPath:  getEnv("CAMPAIGN_CONFIG_PATH", "config/campaign.yaml"),
			TemplatesPath: getEnv("TEMPLATES_CONFIG_PATH", "config/templates.yaml"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		LLM: LLMConfig{
			APIKey:              os.Getenv("LLM_API_KEY"),
			BaseURL:             os.Getenv("LLM_BASE_URL"),
			Model:               getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxAttempts:         getEnvAsInt("LLM_MAX_ATTEMPTS", 2),
			PerAttemptTimeoutMS: getEnvAsInt("LLM_PER_ATTEMPT_TIMEOUT_MS", 4000),
			TotalBudgetMS:       getEnvAsInt("LLM_TOTAL_BUDGET_MS", 8000),
		},
		Webhook: WebhookConfig{
			InstagramSecret: os.Getenv("IG_APP_SECRET"),
			TikTokSecret:    os.Getenv("TIKTOK_APP_SECRET"),
			WhatsAppSecret:  os.Getenv("WHATSAPP_APP_SECRET"),
		},
		Admin: AdminConfig{
			APIKey:          getEnv("ADMIN_API_KEY", "dev-admin-key"),
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("ADMIN_TOKEN_TTL_MINUTES", 60),
		},
		CRM: CRMConfig{
			WebhookURL: getEnv("CRM_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PerAttemptTimeout returns the per-call timeout for the LLM tier.
func (l LLMConfig) PerAttemptTimeout() time.Duration {
	return time.Duration(l.PerAttemptTimeoutMS) * time.Millisecond
}

// TotalBudget returns the overall time budget for the LLM tier.
func (l LLMConfig) TotalBudget() time.Duration {
	return time.Duration(l.TotalBudgetMS) * time.Millisecond
}

// Enabled reports whether the LLM fallback can run at all.
func (l LLMConfig) Enabled() bool {
	return l.APIKey != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
