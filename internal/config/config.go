package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL string        `yaml:"database_url"`
	LogLevel    string        `yaml:"log_level"`
	Server      ServerConfig  `yaml:"server"`
	Discord     DiscordConfig `yaml:"discord"`
	Bot         BotConfig     `yaml:"bot"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	JWTSecret     string `yaml:"jwt_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

type DiscordConfig struct {
	BotToken      string      `yaml:"bot_token"`
	GuildID       string      `yaml:"guild_id"`
	LogWebhookURL string      `yaml:"log_webhook_url"`
	EmbedColors   EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Action  int `yaml:"action"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

type BotConfig struct {
	Addr             string  `yaml:"addr"`
	APISecret        string  `yaml:"api_secret"`
	ReceiverURL      string  `yaml:"receiver_url"`
	ReceiverSecret   string  `yaml:"receiver_secret"`
	UnverifiedRoleID string  `yaml:"unverified_role_id"`
	Roles            RoleMap `yaml:"roles"`
}

// RoleMap holds the pre-provisioned guild role id for each internal role.
type RoleMap struct {
	Candidate   string `yaml:"candidate"`
	Recruiter   string `yaml:"recruiter"`
	SchoolAdmin string `yaml:"school_admin"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:          ":8080",
			AllowedOrigin: "*",
		},
		Discord: DiscordConfig{
			EmbedColors: EmbedColors{
				Action:  0xF59E0B,
				Warning: 0xEF4444,
				Error:   0xF97316,
			},
		},
		Bot: BotConfig{
			Addr: ":8090",
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Addr = envString("SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.JWTSecret = envString("JWT_SECRET", cfg.Server.JWTSecret)
	cfg.Server.WebhookSecret = envString("WEBHOOK_SECRET", cfg.Server.WebhookSecret)
	cfg.Server.AllowedOrigin = envString("ALLOWED_ORIGIN", cfg.Server.AllowedOrigin)
	cfg.Discord.BotToken = envString("DISCORD_BOT_TOKEN", cfg.Discord.BotToken)
	cfg.Discord.GuildID = envString("DISCORD_GUILD_ID", cfg.Discord.GuildID)
	cfg.Discord.LogWebhookURL = envString("DISCORD_LOG_WEBHOOK_URL", cfg.Discord.LogWebhookURL)
	cfg.Discord.EmbedColors.Action = envInt("EMBED_COLOR_ACTION", cfg.Discord.EmbedColors.Action)
	cfg.Discord.EmbedColors.Warning = envInt("EMBED_COLOR_WARNING", cfg.Discord.EmbedColors.Warning)
	cfg.Discord.EmbedColors.Error = envInt("EMBED_COLOR_ERROR", cfg.Discord.EmbedColors.Error)
	cfg.Bot.Addr = envString("BOT_ADDR", cfg.Bot.Addr)
	cfg.Bot.APISecret = envString("BOT_API_SECRET", cfg.Bot.APISecret)
	cfg.Bot.ReceiverURL = envString("BOT_RECEIVER_URL", cfg.Bot.ReceiverURL)
	cfg.Bot.ReceiverSecret = envString("BOT_RECEIVER_SECRET", cfg.Bot.ReceiverSecret)
	cfg.Bot.UnverifiedRoleID = envString("BOT_UNVERIFIED_ROLE_ID", cfg.Bot.UnverifiedRoleID)
	cfg.Bot.Roles.Candidate = envString("BOT_ROLE_CANDIDATE", cfg.Bot.Roles.Candidate)
	cfg.Bot.Roles.Recruiter = envString("BOT_ROLE_RECRUITER", cfg.Bot.Roles.Recruiter)
	cfg.Bot.Roles.SchoolAdmin = envString("BOT_ROLE_SCHOOL_ADMIN", cfg.Bot.Roles.SchoolAdmin)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
