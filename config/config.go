// Package config loads settings from an optional config file and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
type Config struct {
	LLM     LLMConfig
	Storage StorageConfig
	Images  ImagesConfig
	Server  ServerConfig
	Log     LogConfig
}

// LLMConfig 配置补全服务。provider 为 openai、deepseek（OpenAI 兼容接口）或 mock。
type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// StorageConfig points at the attachment store.
type StorageConfig struct {
	Root         string
	PublicPrefix string
}

// ImagesConfig caps what is sent to the model.
type ImagesConfig struct {
	MaxImages int
	MaxBytes  int64
}

type ServerConfig struct {
	Addr string
}

type LogConfig struct {
	Level string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("storage.root", "./data")
	v.SetDefault("storage.public_prefix", "/files/")
	v.SetDefault("images.max_images", 3)
	v.SetDefault("images.max_bytes", 2<<20)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
}

// Load reads path (JSON or YAML, optional) and overlays environment
// variables such as LLM_API_KEY or STORAGE_ROOT. It does not validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_API_KEY is what most tooling already exports
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return &Config{
		LLM: LLMConfig{
			Provider: strings.ToLower(v.GetString("llm.provider")),
			Model:    v.GetString("llm.model"),
			APIKey:   v.GetString("llm.api_key"),
			BaseURL:  v.GetString("llm.base_url"),
			Timeout:  v.GetDuration("llm.timeout"),
		},
		Storage: StorageConfig{
			Root:         v.GetString("storage.root"),
			PublicPrefix: v.GetString("storage.public_prefix"),
		},
		Images: ImagesConfig{
			MaxImages: v.GetInt("images.max_images"),
			MaxBytes:  v.GetInt64("images.max_bytes"),
		},
		Server: ServerConfig{Addr: v.GetString("server.addr")},
		Log:    LogConfig{Level: v.GetString("log.level")},
	}, nil
}

// Validate reports settings the chosen provider cannot work without.
func (c *Config) Validate() error {
	var missing []string
	switch c.LLM.Provider {
	case "mock":
		return nil
	case "openai":
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if c.LLM.BaseURL == "" {
			missing = append(missing, "llm.base_url")
		}
	default:
		return fmt.Errorf("llm provider %q not supported", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, "llm.api_key (LLM_API_KEY or OPENAI_API_KEY)")
	}
	if c.LLM.Timeout <= 0 {
		missing = append(missing, "llm.timeout")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}
