// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	ServerHost  string
	ServerPort  string
	Environment string
	LogLevel    string

	// Storage
	DBPath    string
	UploadDir string
	// DocsDir enables loading documents by server-side path, confined to
	// this directory. Empty disables path loading over HTTP.
	DocsDir string

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string

	// Completion backend
	AIProvider    string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeout     time.Duration
	AIMaxRetries  int
	FallbackText  string

	// Size ceilings; prompt slicing is a heuristic, not a token budget.
	MaxSourceBytes   int
	MaxQuestionRunes int

	RateLimitPerMinute int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerHost:  getEnv("SERVER_HOST", "127.0.0.1"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		DBPath:    getEnv("DB_PATH", "chat_history.db"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		DocsDir:   getEnv("DOCS_DIR", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		AIProvider:    strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini)),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxRetries:  getEnvAsInt("AI_MAX_RETRIES", 2),
		FallbackText:  getEnv("AI_FALLBACK_TEXT", "Unknown Topic"),

		MaxSourceBytes:   getEnvAsInt("MAX_SOURCE_BYTES", 8<<20),
		MaxQuestionRunes: getEnvAsInt("MAX_QUESTION_RUNES", 8000),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		if missing := cfg.MissingProductionKeys(); len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// MissingProductionKeys lists the variables a production deployment must set.
func (c *Config) MissingProductionKeys() []string {
	missing := []string{}
	switch c.AIProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		missing = append(missing, "AI_PROVIDER")
	}
	if c.DBPath == "" {
		missing = append(missing, "DB_PATH")
	}
	return missing
}

// Validate checks values that would make the application misbehave at runtime.
func (c *Config) Validate() error {
	if c.AIProvider != ProviderGemini && c.AIProvider != ProviderOpenAI {
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
	if strings.TrimSpace(c.FallbackText) == "" {
		return fmt.Errorf("AI_FALLBACK_TEXT must not be empty")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.MaxQuestionRunes <= 0 {
		return fmt.Errorf("MAX_QUESTION_RUNES must be positive")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS entry %q must be an http(s) origin", origin)
		}
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	list := []string{}
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
	return defaultValue
}
