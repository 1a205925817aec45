package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// ErrMissingCredential is returned when the selected chat provider has no API credential.
var ErrMissingCredential = errors.New("missing chat provider credential")

// Chat providers.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Speech providers. An empty provider disables speech synthesis.
const (
	SpeechProviderNone       = ""
	SpeechProviderOpenAI     = "openai"
	SpeechProviderVolcengine = "volcengine"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
	defaultAITimeout   = 30 * time.Second
)

// Config aggregates all service settings.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Speech   SpeechConfig
	Telegram TelegramConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig(ai)
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech, Telegram: loadTelegramConfig()}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr          string
	StaticDir     string
	GreetingDelay time.Duration
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	greetingDelay, err := parseDurationEnv("GREETING_DELAY", 3*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		Addr:          port,
		StaticDir:     strings.TrimSpace(os.Getenv("STATIC_DIR")),
		GreetingDelay: greetingDelay,
	}

	// Accept ":8080" or "127.0.0.1:8080" as-is.
	if strings.Contains(port, ":") {
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig describes the completion provider.
type AIConfig struct {
	Provider string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Validate fails when the selected provider cannot authenticate.
func (c AIConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for provider %q", ErrMissingCredential, c.Provider)
		}
	case ProviderArk:
		if c.ArkModel == "" {
			return fmt.Errorf("%w: ARK_MODEL is required for provider %q", ErrMissingCredential, c.Provider)
		}
		if c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "") {
			return fmt.Errorf("%w: ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY is required", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("unsupported CHAT_PROVIDER %q", c.Provider)
	}
	return nil
}

// NewArkChatModel builds the Ark chat model used by the eino chain.
func (c AIConfig) NewArkChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk {
		return nil, fmt.Errorf("ark chat model requested for provider %q", c.Provider)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	temperature := c.Temperature
	maxTokens := c.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", ProviderOpenAI))

	temperature := float32(defaultTemperature)
	if override, err := parseOptionalFloatEnv("AI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = float32(*override)
	}

	maxTokens := defaultMaxTokens
	if override, err := parseOptionalIntEnv("AI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("invalid AI_MAX_TOKENS value %d", *override)
		}
		maxTokens = *override
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", defaultAITimeout)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:      provider,
		OpenAIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4"),
		ArkAPIKey:     strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:  strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:  strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:      strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:    getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:     getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		MaxTokens:     maxTokens,
		Timeout:       timeout,
	}, nil
}

// SpeechConfig describes the optional text-to-speech provider.
type SpeechConfig struct {
	Provider string
	Voice    string
	Model    string

	// OpenAI speech reuses the chat credential unless overridden.
	OpenAIKey     string
	OpenAIBaseURL string

	// Volcengine
	AppID       string
	AccessToken string
	TTSSpeed    float32
	TTSVolume   float32
	TTSLanguage string

	Timeout time.Duration
}

// Enabled reports whether replies should carry synthesized audio.
func (c SpeechConfig) Enabled() bool {
	return c.Provider != SpeechProviderNone
}

func loadSpeechConfig(ai AIConfig) (SpeechConfig, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("SPEECH_PROVIDER")))

	timeout, err := parseDurationEnv("SPEECH_TIMEOUT", 15*time.Second)
	if err != nil {
		return SpeechConfig{}, err
	}

	speed, err := parseOptionalFloatEnv("SPEECH_TTS_SPEED")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsSpeed := float32(1.0)
	if speed != nil {
		ttsSpeed = float32(*speed)
	}

	volume, err := parseOptionalFloatEnv("SPEECH_TTS_VOLUME")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsVolume := float32(1.0)
	if volume != nil {
		ttsVolume = float32(*volume)
	}

	cfg := SpeechConfig{
		Provider:      provider,
		Voice:         strings.TrimSpace(os.Getenv("SPEECH_VOICE")),
		Model:         strings.TrimSpace(os.Getenv("SPEECH_MODEL")),
		OpenAIKey:     getEnvOrDefault("SPEECH_OPENAI_API_KEY", ai.OpenAIKey),
		OpenAIBaseURL: getEnvOrDefault("SPEECH_OPENAI_BASE_URL", ai.OpenAIBaseURL),
		AppID:         strings.TrimSpace(os.Getenv("SPEECH_APP_ID")),
		AccessToken:   strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN")),
		TTSSpeed:      ttsSpeed,
		TTSVolume:     ttsVolume,
		TTSLanguage:   getEnvOrDefault("SPEECH_TTS_LANGUAGE", "en-US"),
		Timeout:       timeout,
	}

	switch provider {
	case SpeechProviderNone:
	case SpeechProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return SpeechConfig{}, fmt.Errorf("%w: OPENAI_API_KEY is required for SPEECH_PROVIDER=openai", ErrMissingCredential)
		}
	case SpeechProviderVolcengine:
		if cfg.AppID == "" || cfg.AccessToken == "" {
			return SpeechConfig{}, fmt.Errorf("%w: SPEECH_APP_ID and SPEECH_ACCESS_TOKEN are required for SPEECH_PROVIDER=volcengine", ErrMissingCredential)
		}
	default:
		return SpeechConfig{}, fmt.Errorf("unsupported SPEECH_PROVIDER %q", provider)
	}

	return cfg, nil
}

// TelegramConfig describes the optional Telegram front end.
type TelegramConfig struct {
	BotToken string
	RelayURL string
}

func loadTelegramConfig() TelegramConfig {
	return TelegramConfig{
		BotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		RelayURL: getEnvOrDefault("RELAY_URL", "http://localhost:8080/api/chat"),
	}
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

// parseDurationEnv accepts Go durations ("45s") or a bare number of seconds.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}
