// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values and validate

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go-boss-assistant/internal/chatdom"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	//Browser
	ChatURL     string `yaml:"chat_url"`
	Headless    bool   `yaml:"headless"`
	CookiesPath string `yaml:"cookies_path"`
	//cron spec for writing session cookies back to CookiesPath, empty disables
	CookieSaveSpec string `yaml:"cookie_save_spec"`

	//Store backend: "file" or "redis"
	Store     string `yaml:"store"`
	StorePath string `yaml:"store_path"`
	RedisURL  string `yaml:"redis_url"`

	//Optional reply audit log
	DatabaseURL string `yaml:"database_url"`

	//Optional Telegram notifications
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	ServerAddr string `yaml:"server_addr"`

	AutoReply AutoReplyConfig   `yaml:"auto_reply"`
	JobDetail JobDetailConfig   `yaml:"job_detail"`
	Selectors chatdom.Selectors `yaml:"selectors"`
}

type AutoReplyConfig struct {
	DebounceMs    int    `yaml:"debounce_ms"`
	WindowSize    int    `yaml:"window_size"`
	ReplyOnAttach bool   `yaml:"reply_on_attach"`
	PromptVariant string `yaml:"prompt_variant"`
	// pointer so an explicit false in yaml survives defaulting
	Streaming *bool `yaml:"streaming"`
}

type JobDetailConfig struct {
	URLTemplate string `yaml:"url_template"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	PollMs      int    `yaml:"poll_ms"`
	SettleMs    int    `yaml:"settle_ms"`
}

const (
	VariantTranscript = "transcript"
	VariantMessages   = "messages"
)

func (a AutoReplyConfig) Debounce() time.Duration {
	return time.Duration(a.DebounceMs) * time.Millisecond
}

func (a AutoReplyConfig) StreamingEnabled() bool {
	return a.Streaming == nil || *a.Streaming
}

func (j JobDetailConfig) Timeout() time.Duration {
	return time.Duration(j.TimeoutMs) * time.Millisecond
}

func (j JobDetailConfig) Poll() time.Duration {
	return time.Duration(j.PollMs) * time.Millisecond
}

func (j JobDetailConfig) Settle() time.Duration {
	return time.Duration(j.SettleMs) * time.Millisecond
}

// Load reads .env, then the YAML file at path (DefaultPath when empty), then
// environment overrides. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BOSS_CHAT_URL"); v != "" {
		c.ChatURL = v
	}
	if v := os.Getenv("BOSS_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("BOSS_SERVER_ADDR"); v != "" {
		c.ServerAddr = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if v := os.Getenv("BOSS_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BOSS_HEADLESS: %w", err)
		}
		c.Headless = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ChatURL == "" {
		c.ChatURL = "https://www.zhipin.com/web/geek/chat"
	}
	if c.CookiesPath == "" {
		c.CookiesPath = "../.cookies/cookies-zhipin.json"
	}
	if c.Store == "" {
		c.Store = "file"
	}
	if c.StorePath == "" {
		c.StorePath = "../.cache"
	}
	if c.ServerAddr == "" {
		c.ServerAddr = "127.0.0.1:8089"
	}

	if c.AutoReply.DebounceMs <= 0 {
		c.AutoReply.DebounceMs = 200
	}
	if c.AutoReply.WindowSize <= 0 {
		c.AutoReply.WindowSize = 20
	}
	if c.AutoReply.PromptVariant == "" {
		c.AutoReply.PromptVariant = VariantTranscript
	}

	if c.JobDetail.URLTemplate == "" {
		c.JobDetail.URLTemplate = "https://www.zhipin.com/job_detail/%s.html?securityId=%s"
	}
	if c.JobDetail.TimeoutMs <= 0 {
		c.JobDetail.TimeoutMs = 10000
	}
	if c.JobDetail.PollMs <= 0 {
		c.JobDetail.PollMs = 200
	}
	if c.JobDetail.SettleMs <= 0 {
		c.JobDetail.SettleMs = 2000
	}

	c.Selectors = c.Selectors.WithDefaults()
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store {
	case "file":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url (or REDIS_URL) is required when store is redis")
		}
	default:
		return fmt.Errorf("unknown store %q (want file or redis)", c.Store)
	}

	switch c.AutoReply.PromptVariant {
	case VariantTranscript, VariantMessages:
	default:
		return fmt.Errorf("unknown prompt_variant %q", c.AutoReply.PromptVariant)
	}

	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when a telegram token is set")
	}
	return nil
}

// TelegramEnabled reports whether notifications should go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
