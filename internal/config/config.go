package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// RedisURL, when set, switches the typing-presence broker from the
	// in-process implementation to Redis pub/sub.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Chat policy knobs. History page size and directory live-update are
	// deliberately configuration, not constants.
	ChatHistoryPageSize int  `mapstructure:"CHAT_HISTORY_PAGE_SIZE"`
	DirectoryLiveUpdate bool `mapstructure:"DIRECTORY_LIVE_UPDATE"`
	TypingTTLSeconds    int  `mapstructure:"TYPING_TTL_SECONDS"`

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	MaxUploadMiB   int64  `mapstructure:"MAX_UPLOAD_MIB"`
	MediaURLPrefix string `mapstructure:"MEDIA_URL_PREFIX"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("CHAT_HISTORY_PAGE_SIZE", 50)
	viper.SetDefault("DIRECTORY_LIVE_UPDATE", true)
	viper.SetDefault("TYPING_TTL_SECONDS", 3)
	viper.SetDefault("UPLOAD_DIR", "./media")
	viper.SetDefault("MAX_UPLOAD_MIB", 5)
	viper.SetDefault("MEDIA_URL_PREFIX", "/media")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}

// TypingTTL returns the typing liveness timeout as a duration.
func (c *Config) TypingTTL() time.Duration {
	if c.TypingTTLSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.TypingTTLSeconds) * time.Second
}

// MaxUploadBytes returns the media upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.MaxUploadMiB <= 0 {
		return 5 << 20
	}
	return c.MaxUploadMiB << 20
}
