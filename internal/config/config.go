package config

import (
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Twitter   Twitter   `yaml:"twitter"`
	OpenAI    OpenAI    `yaml:"openai"`
	Posting   Posting   `yaml:"posting"`
	Responses Responses `yaml:"responses"`
	Content   Content   `yaml:"content"`
	Store     Store     `yaml:"store"`
	Analytics Analytics `yaml:"analytics"`
	Backup    Backup    `yaml:"backup"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Twitter holds Twitter API configuration
type Twitter struct {
	BaseURL     string `yaml:"base_url" env:"TWITTER_BASE_URL" env-default:"https://api.twitter.com"`
	BearerToken string `yaml:"bearer_token" env:"TWITTER_BEARER_TOKEN"`
	BotUserID   string `yaml:"bot_user_id" env:"TWITTER_BOT_USER_ID"`
}

// OpenAI holds content generation configuration
type OpenAI struct {
	BaseURL     string  `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com"`
	APIKey      string  `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model       string  `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	MaxTokens   int     `yaml:"max_tokens" env:"OPENAI_MAX_TOKENS" env-default:"150"`
	Temperature float64 `yaml:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0.7"`
}

// Posting holds autonomous posting configuration
type Posting struct {
	Enabled        bool          `yaml:"enabled" env:"AUTO_POSTING_ENABLED" env-default:"true"`
	Hour           int           `yaml:"hour" env:"POSTING_SCHEDULE_HOUR" env-default:"9"`
	Minute         int           `yaml:"minute" env:"POSTING_SCHEDULE_MINUTE" env-default:"0"`
	MaxPostsPerDay int           `yaml:"max_posts_per_day" env:"MAX_POSTS_PER_DAY" env-default:"5"`
	TickInterval   time.Duration `yaml:"tick_interval" env:"POSTING_TICK_INTERVAL" env-default:"1m"`
}

// Responses holds inbound message handling configuration
type Responses struct {
	Enabled       bool          `yaml:"enabled" env:"RESPONSE_ENABLED" env-default:"true"`
	CheckInterval time.Duration `yaml:"check_interval" env:"MESSAGE_CHECK_INTERVAL" env-default:"1m"`
	DelayMin      time.Duration `yaml:"delay_min" env:"RESPONSE_DELAY_MIN" env-default:"5s"`
	DelayMax      time.Duration `yaml:"delay_max" env:"RESPONSE_DELAY_MAX" env-default:"30s"`
}

// Content holds content generation preferences
type Content struct {
	Language      string `yaml:"language" env:"CONTENT_LANGUAGE" env-default:"en"`
	Themes        string `yaml:"themes" env:"POST_THEMES" env-default:"technology,programming,ai,devops,automation"`
	HashtagCount  int    `yaml:"hashtag_count" env:"HASHTAG_COUNT" env-default:"3"`
	MaxPostLength int    `yaml:"max_post_length" env:"MAX_POST_LENGTH" env-default:"280"`
	Blacklist     string `yaml:"blacklist" env:"BLACKLISTED_WORDS" env-default:""`
}

// ThemeList returns the configured post themes as a slice
func (c Content) ThemeList() []string {
	return splitList(c.Themes)
}

// BlacklistWords returns the configured blacklist as a slice
func (c Content) BlacklistWords() []string {
	return splitList(c.Blacklist)
}

// Store holds durable store configuration
type Store struct {
	Dir string `yaml:"dir" env:"STORE_DIR" env-default:"./data"`
}

// Analytics holds analytics database configuration
type Analytics struct {
	Enabled bool   `yaml:"enabled" env:"ENABLE_ANALYTICS" env-default:"true"`
	DBPath  string `yaml:"db_path" env:"ANALYTICS_DB_PATH" env-default:"./data/analytics.db"`
}

// Backup holds snapshot backup configuration
type Backup struct {
	Enabled  bool          `yaml:"enabled" env:"BACKUP_ENABLED" env-default:"false"`
	Interval time.Duration `yaml:"interval" env:"BACKUP_INTERVAL" env-default:"24h"`

	S3Endpoint        string `yaml:"s3_endpoint" env:"BACKUP_S3_ENDPOINT" env-default:"http://localhost:9000"`
	S3AccessKeyID     string `yaml:"s3_access_key_id" env:"BACKUP_S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key" env:"BACKUP_S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	S3Bucket          string `yaml:"s3_bucket" env:"BACKUP_S3_BUCKET" env-default:"feather-backups"`
	S3Region          string `yaml:"s3_region" env:"BACKUP_S3_REGION" env-default:"us-east-1"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
