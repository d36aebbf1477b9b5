package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the service. It is read-only after Load.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Session SessionConfig
	AI      AIConfig
}

// Load resolves configuration from the environment, falling back to the
// optional secrets file for the secret-valued keys.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	secrets := loadSecrets()

	app, err := loadAppConfig(secrets)
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(secrets)
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, App: app, Session: session, AI: ai}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AppConfig holds the access password and presentation settings.
type AppConfig struct {
	Password       string
	SystemPrompt   string
	RevealInterval time.Duration
}

// PasswordConfigured reports whether the shared access secret is set.
func (c AppConfig) PasswordConfigured() bool {
	return c.Password != ""
}

func loadAppConfig(secrets secretValues) (AppConfig, error) {
	intervalMS, err := parseOptionalIntEnv("REVEAL_INTERVAL_MS")
	if err != nil {
		return AppConfig{}, err
	}
	interval := 30 * time.Millisecond
	if intervalMS != nil {
		if *intervalMS < 0 {
			return AppConfig{}, fmt.Errorf("invalid REVEAL_INTERVAL_MS value: %d", *intervalMS)
		}
		interval = time.Duration(*intervalMS) * time.Millisecond
	}

	systemPrompt := secrets.lookup("POEM_SYSTEM_PROMPT")
	if systemPrompt != "" && !strings.Contains(systemPrompt, "{poet}") {
		log.Printf("warning: POEM_SYSTEM_PROMPT does not contain the {poet} placeholder, using it verbatim")
	}

	return AppConfig{
		Password:       secrets.lookup("APP_PASSWORD"),
		SystemPrompt:   systemPrompt,
		RevealInterval: interval,
	}, nil
}

// SessionConfig controls session lifetime and the optional Redis backend.
type SessionConfig struct {
	TTL       time.Duration
	RedisAddr string
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseOptionalDurationEnv("SESSION_TTL")
	if err != nil {
		return SessionConfig{}, err
	}

	sessionTTL := time.Hour
	if ttl != nil {
		if *ttl <= 0 {
			return SessionConfig{}, fmt.Errorf("invalid SESSION_TTL value: %s", *ttl)
		}
		sessionTTL = *ttl
	}

	return SessionConfig{
		TTL:       sessionTTL,
		RedisAddr: strings.TrimSpace(os.Getenv("SESSION_REDIS_ADDR")),
	}, nil
}

// AIConfig describes the generation provider.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the provider credential is present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewChatModel builds the chat model instance from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is not configured")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &openaimodel.ChatModelConfig{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: temperature,
		MaxTokens:   c.MaxTokens,
	}

	return openaimodel.NewChatModel(ctx, cfg)
}

func loadAIConfig(secrets secretValues) (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      secrets.lookup("OPENAI_API_KEY"),
		Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-5.1"),
		BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
