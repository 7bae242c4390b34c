package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "config.yaml"

// requiredKeys must be present in the configuration document; a missing key is
// a startup failure.
var requiredKeys = []string{
	"llm.provider",
	"llm.model",
	"llm.temperature",
	"llm.max_tokens",
	"tools.web_search.enabled",
	"tools.web_search.provider",
}

// Config aggregates every setting of the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Responses ResponsesConfig `mapstructure:"responses"`

	Credentials Credentials `mapstructure:"-"`
}

// ServerConfig describes the HTTP surface.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	UploadDir   string `mapstructure:"upload_dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
	StaticDir   string `mapstructure:"static_dir"` // overrides the embedded dashboard when set
}

// LLMConfig selects and tunes the inference provider.
type LLMConfig struct {
	Provider    string         `mapstructure:"provider"`
	Model       string         `mapstructure:"model"`
	Temperature float64        `mapstructure:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens"`
	TopP        *float64       `mapstructure:"top_p"`
	BaseURL     string         `mapstructure:"base_url"`
	Region      string         `mapstructure:"region"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Options     map[string]any `mapstructure:"options"`
}

// MemoryConfig bounds the per-session history.
type MemoryConfig struct {
	Type         string `mapstructure:"type"`
	MaxExchanges int    `mapstructure:"max_exchanges"`
}

// AgentConfig bounds the resolution loop.
type AgentConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"`
	MaxExecutionTime time.Duration `mapstructure:"max_execution_time"`
	Profile          string        `mapstructure:"profile"`
	Verbose          bool          `mapstructure:"verbose"`
}

// TelegramConfig enables the Telegram chat surface.
type TelegramConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Profile string        `mapstructure:"profile"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ResponsesConfig holds fixed user-facing messages.
type ResponsesConfig struct {
	Error       string `mapstructure:"error"`
	Unavailable string `mapstructure:"unavailable"`
	Stopped     string `mapstructure:"stopped"`
}

// Load reads the configuration document at path, applies defaults and
// environment overrides (CHATBOT_ prefix) and validates it. Credentials are read
// from the process environment; call godotenv before Load to pick up a .env file.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Key: path, Err: ErrConfigNotFound}
		}
		return nil, &Error{Key: path, Err: fmt.Errorf("read config: %w", err)}
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, &Error{Key: key, Err: ErrMissingKey}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, &Error{Key: path, Err: fmt.Errorf("unmarshal: %w", err)}
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		server, err := loadServerConfig()
		if err != nil {
			return nil, &Error{Key: "server.addr", Err: err}
		}
		cfg.Server.Addr = server.Addr
	}

	cfg.Credentials = LoadCredentials()
	cfg.Tools.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("memory.type", "buffer")
	v.SetDefault("memory.max_exchanges", 10)
	v.SetDefault("agent.max_iterations", 5)
	v.SetDefault("agent.max_execution_time", "30s")
	v.SetDefault("agent.profile", "aiml")
	v.SetDefault("tools.summary_chars", 150)
	v.SetDefault("tools.max_results", 3)
	v.SetDefault("tools.timeout", "15s")
	v.SetDefault("tools.wikipedia.enabled", true)
	v.SetDefault("tools.news.enabled", true)
	v.SetDefault("tools.arxiv.enabled", true)
	v.SetDefault("tools.youtube.enabled", true)
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("responses.error", "I encountered an error processing your query. Could you please try again.")
	v.SetDefault("responses.unavailable", "Chatbot is not properly initialized. Please check your API keys and configuration.")
	v.SetDefault("responses.stopped", "I could not finish looking that up in time. Could you please rephrase or narrow the question.")
}

// Validate checks value ranges after decoding.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.LLM.Provider) == "":
		return &Error{Key: "llm.provider", Err: ErrMissingKey}
	case strings.TrimSpace(c.LLM.Model) == "":
		return &Error{Key: "llm.model", Err: ErrMissingKey}
	case c.LLM.Temperature < 0 || c.LLM.Temperature > 2:
		return &Error{Key: "llm.temperature", Err: fmt.Errorf("%w: %v not in [0, 2]", ErrInvalidValue, c.LLM.Temperature)}
	case c.LLM.MaxTokens <= 0:
		return &Error{Key: "llm.max_tokens", Err: fmt.Errorf("%w: must be positive", ErrInvalidValue)}
	case c.Memory.MaxExchanges <= 0:
		return &Error{Key: "memory.max_exchanges", Err: fmt.Errorf("%w: must be positive", ErrInvalidValue)}
	case c.Agent.MaxIterations <= 0:
		return &Error{Key: "agent.max_iterations", Err: fmt.Errorf("%w: must be positive", ErrInvalidValue)}
	case c.Agent.MaxExecutionTime <= 0:
		return &Error{Key: "agent.max_execution_time", Err: fmt.Errorf("%w: must be positive", ErrInvalidValue)}
	}

	switch c.Tools.WebSearch.Provider {
	case "tavily", "duckduckgo", "auto":
	default:
		return &Error{Key: "tools.web_search.provider", Err: fmt.Errorf("%w: unknown provider %q", ErrInvalidValue, c.Tools.WebSearch.Provider)}
	}
	return nil
}

// MaxUploadBytes converts the configured upload limit.
func (s ServerConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 16 << 20
	}
	return s.MaxUploadMB << 20
}

// secondsToDurationHook lets plain numbers such as "max_execution_time: 30" mean
// seconds instead of nanoseconds.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		}
		return data, nil
	}
}
