package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Credentials are secrets read from the environment, never from config.yaml.
type Credentials struct {
	GroqAPIKey       string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GeminiAPIKey     string
	ArkAPIKey        string
	ArkAccessKey     string
	ArkSecretKey     string
	OllamaHost       string
	TavilyAPIKey     string
	YouTubeAPIKey    string
	TelegramBotToken string
}

// LoadCredentials reads every known secret from the process environment.
func LoadCredentials() Credentials {
	return Credentials{
		GroqAPIKey:       strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		GeminiAPIKey:     firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		ArkAPIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		OllamaHost:       getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		TavilyAPIKey:     strings.TrimSpace(os.Getenv("TAVILY_API_KEY")),
		YouTubeAPIKey:    strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY")),
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
	}
}

// RequireFor reports ErrMissingCredential when provider cannot authenticate.
func (c Credentials) RequireFor(provider string) error {
	var key, value string
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "groq":
		key, value = "GROQ_API_KEY", c.GroqAPIKey
	case "openai":
		key, value = "OPENAI_API_KEY", c.OpenAIAPIKey
	case "anthropic":
		key, value = "ANTHROPIC_API_KEY", c.AnthropicAPIKey
	case "gemini":
		key, value = "GEMINI_API_KEY", c.GeminiAPIKey
	case "ark":
		if c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != "") {
			return nil
		}
		key = "ARK_API_KEY"
	case "ollama":
		return nil
	default:
		return &Error{Key: "llm.provider", Err: fmt.Errorf("%w: unknown provider %q", ErrInvalidValue, provider)}
	}
	if value == "" {
		return &Error{Key: key, Err: ErrMissingCredential}
	}
	return nil
}

// loadServerConfig derives the listen address from PORT when config.yaml has none.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// ":5000" and "127.0.0.1:5000" are used as is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// ParseBoolEnv reads a boolean flag, falling back to defaultValue when unset.
func ParseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
