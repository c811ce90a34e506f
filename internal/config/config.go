package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string        `toml:"listen_addr"`
	Port          string        `toml:"port"`
	AppEnv        string        `toml:"app_env"`
	GinMode       string        `toml:"gin_mode"`
	LogLevel      string        `toml:"log_level"`
	DatabasePath  string        `toml:"database_path"`
	SessionSecret string        `toml:"session_secret"`
	JWTSecret     string        `toml:"jwt_secret"`
	TokenTTL      time.Duration `toml:"-"`
	UploadDir     string        `toml:"upload_dir"`
	UploadURLPath string        `toml:"upload_url_path"`
	SiteBaseURL   string        `toml:"site_base_url"`

	SuperRootEmail    string `toml:"super_root_email"`
	SuperRootPassword string `toml:"super_root_password"`

	SMTP SMTPConfig `toml:"smtp"`
}

// SMTPConfig holds outgoing mail settings. An empty Host disables mail.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// fileConfig mirrors AppConfig for TOML decoding; durations are written as strings.
type fileConfig struct {
	AppConfig
	TokenTTL string `toml:"token_ttl"`
}

// Load 读取应用配置：默认值 < CONFIG_FILE 指定的 TOML 文件 < .env < 进程环境变量。
func Load() (AppConfig, error) {
	// .env never overrides variables already present in the process environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	if cfg.AppEnv == "production" && cfg.SessionSecret == defaultSessionSecret {
		log.Warn().Msg("SESSION_SECRET is using the development default")
	}

	return cfg, nil
}

const defaultSessionSecret = "quillpost-dev-secret"

func defaults() AppConfig {
	return AppConfig{
		Port:          "8080",
		AppEnv:        "development",
		GinMode:       "release",
		LogLevel:      "info",
		DatabasePath:  "quillpost.db",
		SessionSecret: defaultSessionSecret,
		TokenTTL:      24 * time.Hour,
		UploadDir:     "web/static/uploads",
		UploadURLPath: "/static/uploads",
		SiteBaseURL:   "http://localhost:8080",
		SMTP:          SMTPConfig{Port: 587},
	}
}

func loadFile(path string, cfg *AppConfig) error {
	file := fileConfig{AppConfig: *cfg}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if raw := strings.TrimSpace(file.TokenTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config file token_ttl: %w", err)
		}
		file.AppConfig.TokenTTL = ttl
	}

	*cfg = file.AppConfig
	return nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.AppEnv, "APP_ENV")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.UploadURLPath, "UPLOAD_URL_PATH")
	setString(&cfg.SiteBaseURL, "SITE_BASE_URL")
	setString(&cfg.SuperRootEmail, "SUPER_ROOT_EMAIL")
	setString(&cfg.SuperRootPassword, "SUPER_ROOT_PASSWORD")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.User, "SMTP_USER")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "MAIL_FROM")

	if raw := strings.TrimSpace(os.Getenv("TOKEN_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}

	if raw := strings.TrimSpace(os.Getenv("SMTP_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		cfg.SMTP.Port = port
	}

	return nil
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}
