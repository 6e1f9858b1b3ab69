package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string        `mapstructure:"DATABASE_URL" validate:"required"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS" validate:"min=0"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME" validate:"min=0"`

	// Server
	ServerPort      string        `mapstructure:"SERVER_PORT" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Rate Limit（req/min/client）
	RateLimitGeneral int `mapstructure:"RATE_LIMIT_GENERAL" validate:"min=1"`
	RateLimitWrite   int `mapstructure:"RATE_LIMIT_WRITE" validate:"min=1"`

	// CORS（カンマ区切りで複数指定可）
	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`

	// Pagination
	PageDefaultLimit int `mapstructure:"PAGE_DEFAULT_LIMIT" validate:"min=1,ltefield=PageMaxLimit"`
	PageMaxLimit     int `mapstructure:"PAGE_MAX_LIMIT" validate:"min=1"`
}

// defaults は任意環境変数のデフォルト値。
var defaults = map[string]interface{}{
	"DATABASE_URL":         "",
	"DB_MAX_OPEN_CONNS":    10,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": 5 * time.Minute,
	"SERVER_PORT":          "8080",
	"SHUTDOWN_TIMEOUT":     30 * time.Second,
	"LOG_LEVEL":            "info",
	"RATE_LIMIT_GENERAL":   120,
	"RATE_LIMIT_WRITE":     30,
	"CORS_ALLOWED_ORIGIN":  "http://localhost:3000",
	"PAGE_DEFAULT_LIMIT":   50,
	"PAGE_MAX_LIMIT":       100,
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig はタグに従って設定値を検証する。
// 必須項目の欠落はまとめて報告する。
func validateConfig(cfg *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("mapstructure")
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s=%v)", fe.Field(), fe.Tag(), fe.Value()))
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	return fmt.Errorf("invalid environment variables: %v", invalid)
}
