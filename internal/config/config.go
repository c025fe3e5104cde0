package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWSROOM_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	llmProviderEnv    = "LLM_PROVIDER"
	llmAPIKeyEnv      = "LLM_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	readerAPIKeyEnv   = "READER_API_KEY"
	s3BucketEnv       = "S3_BUCKET"
	s3RegionEnv       = "S3_REGION"
	redisAddrEnv      = "REDIS_ADDR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	batchEnv          = "SYNC_BATCH_CONCURRENCY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Reader        ReaderConfig       `yaml:"reader"`
	Cache         CacheConfig        `yaml:"cache"`
	LLM           LLMConfig          `yaml:"llm"`
	ObjectStore   ObjectStoreConfig  `yaml:"objectStore"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines how often sources are synchronized.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ReaderConfig selects the content fetcher.
type ReaderConfig struct {
	Provider string        `yaml:"provider"` // http | readability
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// CacheConfig wires the optional redis cache for reader output.
type CacheConfig struct {
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
}

// LLMConfig defines how to contact the text-generation service.
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // openai | gemini | cohere
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
}

// ObjectStoreConfig points at the S3 bucket that hosts cover images.
type ObjectStoreConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Profile       string `yaml:"profile"`
	Endpoint      string `yaml:"endpoint"`
	Prefix        string `yaml:"prefix"`
	PublicBaseURL string `yaml:"publicBaseURL"`
	UsePathStyle  bool   `yaml:"usePathStyle"`
}

// PipelineConfig carries the knobs of synchronization and draft generation.
type PipelineConfig struct {
	BatchConcurrency     int           `yaml:"batchConcurrency"`
	ExtractLimit         int           `yaml:"extractLimit"`
	Strategies           []string      `yaml:"strategies"`
	CanonicalizeURLs     bool          `yaml:"canonicalizeURLs"`
	MaxPromptChars       int           `yaml:"maxPromptChars"`
	HTMLFetchTimeout     time.Duration `yaml:"htmlFetchTimeout"`
	MaxHTMLBytes         int64         `yaml:"maxHTMLBytes"`
	ImageDownloadTimeout time.Duration `yaml:"imageDownloadTimeout"`
	MaxImageBytes        int64         `yaml:"maxImageBytes"`
	PlaceholderImageURL  string        `yaml:"placeholderImageURL"`
	RejectLogoFallback   bool          `yaml:"rejectLogoFallback"`
	TagLimit             int           `yaml:"tagLimit"`
	PersonaSeed          uint64        `yaml:"personaSeed"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the prometheus listener in serve mode.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(readerAPIKeyEnv); v != "" {
		c.Reader.APIKey = v
	}

	if v := os.Getenv(s3BucketEnv); v != "" {
		c.ObjectStore.Bucket = v
	}
	if v := os.Getenv(s3RegionEnv); v != "" {
		c.ObjectStore.Region = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(batchEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.BatchConcurrency = n
		}
	}
}

// normalize replaces zero or invalid values with defaults so a partial YAML file stays usable.
func (c *Config) normalize() {
	def := defaultConfig().Pipeline
	p := &c.Pipeline
	if p.BatchConcurrency <= 0 {
		p.BatchConcurrency = def.BatchConcurrency
	}
	if p.ExtractLimit <= 0 {
		p.ExtractLimit = def.ExtractLimit
	}
	if len(p.Strategies) == 0 {
		p.Strategies = def.Strategies
	}
	if p.MaxPromptChars <= 0 {
		p.MaxPromptChars = def.MaxPromptChars
	}
	if p.HTMLFetchTimeout <= 0 {
		p.HTMLFetchTimeout = def.HTMLFetchTimeout
	}
	if p.MaxHTMLBytes <= 0 {
		p.MaxHTMLBytes = def.MaxHTMLBytes
	}
	if p.ImageDownloadTimeout <= 0 {
		p.ImageDownloadTimeout = def.ImageDownloadTimeout
	}
	if p.MaxImageBytes <= 0 {
		p.MaxImageBytes = def.MaxImageBytes
	}
	if p.PlaceholderImageURL == "" {
		p.PlaceholderImageURL = def.PlaceholderImageURL
	}
	if p.TagLimit <= 0 {
		p.TagLimit = def.TagLimit
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = defaultConfig().Scheduler.Interval
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// Default exposes the built-in configuration (used by tests and tooling).
func Default() Config {
	cfg := defaultConfig()
	cfg.bindTimezone()
	return cfg
}

func defaultConfig() Config {
	return Config{
		Database:  DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{Interval: time.Hour, Timezone: defaultTimezone},
		Reader: ReaderConfig{
			Provider: "http",
			Endpoint: "https://r.jina.ai/",
			Timeout:  30 * time.Second,
			CacheTTL: 6 * time.Hour,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  90 * time.Second,
		},
		ObjectStore: ObjectStoreConfig{Region: "us-east-1", Prefix: "covers/"},
		Pipeline: PipelineConfig{
			BatchConcurrency:     3,
			ExtractLimit:         20,
			Strategies:           []string{"llm"},
			MaxPromptChars:       30000,
			HTMLFetchTimeout:     15 * time.Second,
			MaxHTMLBytes:         1 << 20,
			ImageDownloadTimeout: 30 * time.Second,
			MaxImageBytes:        5 << 20,
			PlaceholderImageURL:  "https://placehold.co/1200x630?text=Newsroom",
			TagLimit:             5,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
