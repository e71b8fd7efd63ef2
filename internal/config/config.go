package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ak91singh/Rizz-academy/internal/auth"
)

const envPrefix = "RIZZ"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Auth   AuthConfig   `mapstructure:"auth"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Chat   ChatConfig   `mapstructure:"chat"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Engine string `mapstructure:"engine"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	SessionDataURL string        `mapstructure:"session_data_url"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheSize      int           `mapstructure:"cache_size"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	PromptsDir  string        `mapstructure:"prompts_dir"`
}

type ChatConfig struct {
	RatePerMinute float64 `mapstructure:"rate_per_minute"`
	Burst         int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.engine", "sqlite")
	v.SetDefault("store.dsn", "")

	v.SetDefault("auth.session_data_url", auth.DefaultSessionDataURL)
	v.SetDefault("auth.session_ttl", auth.DefaultSessionTTL)
	v.SetDefault("auth.timeout", 10*time.Second)
	v.SetDefault("auth.cache_size", 1024)
	v.SetDefault("auth.cookie_secure", true)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.max_tokens", 400)
	v.SetDefault("llm.prompts_dir", "prompts")

	v.SetDefault("chat.rate_per_minute", 20.0)
	v.SetDefault("chat.burst", 5)
}

// Load resolves configuration from defaults, an optional YAML file, RIZZ_*
// environment variables and finally flags. With an empty configFile it looks
// for rizz.yaml in the working directory and tolerates its absence.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names the hosted deployment already exports.
	_ = v.BindEnv("store.dsn", "RIZZ_STORE_DSN", "MONGO_URL")
	_ = v.BindEnv("llm.api_key", "RIZZ_LLM_API_KEY", "OPENAI_API_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("rizz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range map[string]string{
			"server.host":  "host",
			"server.port":  "port",
			"log.level":    "log-level",
			"store.engine": "store",
			"store.dsn":    "dsn",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Engine = strings.ToLower(strings.TrimSpace(cfg.Store.Engine))
	if strings.TrimSpace(cfg.Store.DSN) == "" {
		cfg.Store.DSN = DefaultDSN(cfg.Store.Engine)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultDSN is the data location used when store.dsn is unset.
func DefaultDSN(engine string) string {
	switch engine {
	case "json":
		return "data/rizz.json"
	case "mongo", "mongodb":
		return "mongodb://localhost:27017/rizz_academy"
	case "postgres", "postgresql":
		return ""
	default:
		return "data/rizz.db"
	}
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store.dsn is required for engine %q", c.Store.Engine)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.Chat.RatePerMinute < 0 || c.Chat.Burst < 0 {
		return errors.New("chat rate limits must not be negative")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	return nil
}

// Addr is the listen address, e.g. ":8080" or "127.0.0.1:9000".
func (s ServerConfig) Addr() string {
	host := strings.TrimSpace(s.Host)
	if host == "" {
		return ":" + strconv.Itoa(s.Port)
	}
	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}
