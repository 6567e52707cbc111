package settings

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// consts
const (
	Name = "ShowSmart"

	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Config ...
type Config struct {
	Name    string `ignored:"true"`
	Version string `ignored:"true"`
	Debug   bool   `envconfig:"DEBUG"`

	HTTPListen   string        `envconfig:"HTTP_LISTEN" default:":5001"`
	RedisURI     string        `envconfig:"redis_uri"` // empty: keep sessions in memory
	SessionTTL   time.Duration `envconfig:"Session_TTL" default:"24h"`
	CookieName   string        `envconfig:"Cookie_Name" default:"showsmart"`
	CookiePath   string        `envconfig:"Cookie_Path" default:"/"`
	CookieDomain string        `envconfig:"Cookie_Domain"`

	// falls back to the unprefixed GOOGLE_API_KEY
	GoogleAPIKey string  `envconfig:"GOOGLE_API_KEY"`
	ChatModel    string  `envconfig:"chat_model" default:"gemini-2.5-flash"`
	ModelBaseURL string  `envconfig:"model_base_url" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	Temperature  float32 `envconfig:"temperature" default:"0.7"`
	PresetFile   string  `envconfig:"preset_file"`

	SearchEnabled bool   `envconfig:"search_enabled" default:"true"`
	SearchLimit   int    `envconfig:"search_limit" default:"4"`
	SearchURL     string `envconfig:"search_url" default:"https://html.duckduckgo.com/html/"`

	ChatRateLimit string `envconfig:"chat_rate_limit" default:"30-M"`

	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
}

var (
	// Current 当前配置
	Current = new(Config)
)

func init() {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		log.Printf("envconfig process fail: %s", err)
	}
	Current = cfg
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := new(Config)
	err := envconfig.Process(Name, cfg)
	cfg.Name = Name
	cfg.Version = version
	return cfg, err
}

// Usage 打印配置帮助
func Usage() error {
	log.Printf("ver: %s", Current.Version)
	return envconfig.Usage(Current.Name, Current)
}

// InDevelop ...
func InDevelop() bool {
	return Current.Debug
}

// HasAPIKey reports whether a process-wide key is configured.
func (c *Config) HasAPIKey() bool {
	return len(c.GoogleAPIKey) > 0
}
