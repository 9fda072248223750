package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Completion CompletionConfig
	Routing    RoutingConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// CompletionConfig configures the upstream text-completion service used for
// intent classification. A single attempt per route call; the timeout bounds
// the only blocking external call in the pipeline.
type CompletionConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// RoutingConfig carries classification tunables. The confidence thresholds
// are presentation hints for callers, not gates inside the classifier.
type RoutingConfig struct {
	LowConfidence  float64
	HighConfidence float64

	// TenantCacheTTL bounds staleness of tenant active/inactive status.
	// Keep it short; a disabled tenant must stop routing within this window.
	TenantCacheTTL time.Duration
	// ConfigCacheTTL bounds staleness of route rules and agent profiles.
	ConfigCacheTTL time.Duration

	// MaxConcurrentCompletions caps in-flight completion calls per tenant.
	// Zero disables the cap.
	MaxConcurrentCompletions int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate() based on env.
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = optDuration("JWT_REFRESH_TTL")

	c.Completion.BaseURL = strings.TrimSpace(os.Getenv("COMPLETION_BASE_URL"))
	c.Completion.APIKey = os.Getenv("COMPLETION_API_KEY")
	c.Completion.Model = strings.TrimSpace(os.Getenv("COMPLETION_MODEL"))
	c.Completion.Timeout = optDuration("COMPLETION_TIMEOUT")
	c.Completion.Temperature = optFloat("COMPLETION_TEMPERATURE", -1)
	c.Completion.MaxTokens = optInt("COMPLETION_MAX_TOKENS")

	c.Routing.LowConfidence = optFloat("ROUTING_LOW_CONFIDENCE", -1)
	c.Routing.HighConfidence = optFloat("ROUTING_HIGH_CONFIDENCE", -1)
	c.Routing.TenantCacheTTL = optDuration("ROUTING_TENANT_CACHE_TTL")
	c.Routing.ConfigCacheTTL = optDuration("ROUTING_CONFIG_CACHE_TTL")
	c.Routing.MaxConcurrentCompletions = optInt("ROUTING_MAX_CONCURRENT_COMPLETIONS")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Completion.BaseURL == "" {
		errs = append(errs, errors.New("COMPLETION_BASE_URL is required"))
	}
	if c.Completion.APIKey == "" && c.IsProduction() {
		errs = append(errs, errors.New("COMPLETION_API_KEY is required in production"))
	}
	if c.Completion.Timeout <= 0 {
		c.Completion.Timeout = 10 * time.Second
	}
	if c.Completion.Temperature < 0 {
		// Low temperature biases toward reproducible classification.
		c.Completion.Temperature = 0.1
	}
	if c.Completion.Temperature > 1 {
		errs = append(errs, fmt.Errorf("COMPLETION_TEMPERATURE must be in [0,1], got %v", c.Completion.Temperature))
	}
	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 512
	}

	if c.Routing.LowConfidence < 0 {
		c.Routing.LowConfidence = 0.5
	}
	if c.Routing.HighConfidence < 0 {
		c.Routing.HighConfidence = 0.8
	}
	if c.Routing.LowConfidence > 1 || c.Routing.HighConfidence > 1 {
		errs = append(errs, errors.New("ROUTING_LOW_CONFIDENCE and ROUTING_HIGH_CONFIDENCE must be in [0,1]"))
	}
	if c.Routing.HighConfidence < c.Routing.LowConfidence {
		errs = append(errs, errors.New("ROUTING_HIGH_CONFIDENCE must be >= ROUTING_LOW_CONFIDENCE"))
	}
	if c.Routing.TenantCacheTTL <= 0 {
		c.Routing.TenantCacheTTL = 15 * time.Second
	}
	if c.Routing.ConfigCacheTTL <= 0 {
		c.Routing.ConfigCacheTTL = 60 * time.Second
	}
	if c.Routing.MaxConcurrentCompletions < 0 {
		errs = append(errs, errors.New("ROUTING_MAX_CONCURRENT_COMPLETIONS must be >= 0"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
