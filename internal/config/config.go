package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort string `mapstructure:"APP_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- Discord ---
	DCTokens    string `mapstructure:"DC_TOKENS"` // токены ботов через запятую
	DCGuildID   string `mapstructure:"DC_GUILD_ID"`
	DCChannelID string `mapstructure:"DC_CHANNEL_ID"`

	// Лимит на один сегмент; 25 MiB — потолок бесплатного вложения Discord.
	MaxSegmentSize int64 `mapstructure:"MAX_SEGMENT_SIZE"`

	// Каталог для ключевого материала приложения (секреты на диске).
	KeyDir string `mapstructure:"KEY_DIR"`
}

const DefaultMaxSegmentSize = 25 << 20

// Tokens разбирает DC_TOKENS на отдельные токены.
func (c *Config) Tokens() []string {
	var out []string
	for _, t := range strings.Split(c.DCTokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))

	// пароли и токены маскируем
	if c.DBPassword != "" {
		sb.WriteString("  DBPassword: ********\n")
	} else {
		sb.WriteString("  DBPassword: (empty)\n")
	}

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	if c.RedisPassword != "" {
		sb.WriteString("  RedisPassword: ********\n")
	} else {
		sb.WriteString("  RedisPassword: (empty)\n")
	}

	sb.WriteString(fmt.Sprintf("  DCTokens: %d token(s)\n", len(c.Tokens())))
	sb.WriteString(fmt.Sprintf("  DCGuildID: %s\n", c.DCGuildID))
	sb.WriteString(fmt.Sprintf("  DCChannelID: %s\n", c.DCChannelID))
	sb.WriteString(fmt.Sprintf("  MaxSegmentSize: %d\n", c.MaxSegmentSize))
	sb.WriteString(fmt.Sprintf("  KeyDir: %s\n", c.KeyDir))

	return sb.String()
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// Загружаем .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"APP_ENV", "APP_PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"DC_TOKENS", "DC_GUILD_ID", "DC_CHANNEL_ID",
		"MAX_SEGMENT_SIZE", "KEY_DIR",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.MaxSegmentSize <= 0 {
		cfg.MaxSegmentSize = DefaultMaxSegmentSize
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Tokens()) == 0 {
		return errors.New("DC_TOKENS is empty")
	}
	if c.DCGuildID == "" || c.DCChannelID == "" {
		return errors.New("DC_GUILD_ID/DC_CHANNEL_ID are required")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
