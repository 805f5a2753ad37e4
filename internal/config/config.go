package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseDriver     string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	HistorySecret      string
	HistoryKey         string
	HistoryLimit       int
	AIProvider         string
	AIModel            string
	AITemperature      float64
	AIMaxTokens        int
	GeminiAPIKey       string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	GradingConcurrency int
	GradingCallTimeout time.Duration
	SynthesisTimeout   time.Duration
	UploadMaxMB        int
	MaxSubmissions     int
	NATSURL            string
	NATSSubject        string
	RateLimitMax       int
	RateLimitWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UploadLimitBytes returns the maximum accepted request body size.
func (c Config) UploadLimitBytes() int {
	return c.UploadMaxMB * 1024 * 1024
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Grader")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("history.key", "exam_grader_history")
	v.SetDefault("history.limit", 50)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 8192)
	v.SetDefault("grading.concurrency", 1)
	v.SetDefault("grading.call_timeout", "2m")
	v.SetDefault("synthesis.timeout", "2m")
	v.SetDefault("upload.max_mb", 100)
	v.SetDefault("max.submissions", 50)
	v.SetDefault("nats.subject", "grader.batches.completed")
	v.SetDefault("rate_limit.max", 10)
	v.SetDefault("rate_limit.window", "1m")

	callTimeout, err := parseDuration(v, "grading.call_timeout")
	if err != nil {
		return Config{}, err
	}
	synthesisTimeout, err := parseDuration(v, "synthesis.timeout")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseDriver:     strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		HistorySecret:      v.GetString("history.secret"),
		HistoryKey:         v.GetString("history.key"),
		HistoryLimit:       v.GetInt("history.limit"),
		AIProvider:         strings.ToLower(v.GetString("ai.provider")),
		AIModel:            v.GetString("ai.model"),
		AITemperature:      v.GetFloat64("ai.temperature"),
		AIMaxTokens:        v.GetInt("ai.max_tokens"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		AnthropicAPIKey:    v.GetString("anthropic_api_key"),
		GradingConcurrency: v.GetInt("grading.concurrency"),
		GradingCallTimeout: callTimeout,
		SynthesisTimeout:   synthesisTimeout,
		UploadMaxMB:        v.GetInt("upload.max_mb"),
		MaxSubmissions:     v.GetInt("max.submissions"),
		NATSURL:            v.GetString("nats.url"),
		NATSSubject:        v.GetString("nats.subject"),
		RateLimitMax:       v.GetInt("rate_limit.max"),
		RateLimitWindow:    rateWindow,
	}

	switch cfg.AIProvider {
	case "gemini", "openai", "anthropic":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.HistorySecret != "" && len(cfg.HistorySecret) < 32 {
		return Config{}, fmt.Errorf("history secret must be at least 32 bytes")
	}

	if cfg.GradingConcurrency <= 0 {
		cfg.GradingConcurrency = 1
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 100
	}
	if cfg.MaxSubmissions <= 0 {
		cfg.MaxSubmissions = 50
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
