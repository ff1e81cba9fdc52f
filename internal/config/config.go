// Package config はクライアントとサンドボックスサーバーの設定を読み込む。
//
// 設定はYAMLファイル、GUARDIAN_ で始まる環境変数、デフォルト値の順に優先される。
// 例: api.base_url は GUARDIAN_API_BASE_URL で上書きできる。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix は設定を上書きする環境変数の接頭辞。
const EnvPrefix = "GUARDIAN"

// Config はアプリケーション全体の設定。
type Config struct {
	API     APIConfig     `mapstructure:"api"     validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sandbox SandboxConfig `mapstructure:"sandbox" validate:"required"`
}

// APIConfig はバックエンドAPIへの接続設定。
type APIConfig struct {
	// BaseURL はAPIのベースURL。
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Timeout はリクエスト全体のタイムアウト。
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// SkipBrowserWarning はngrok経由の接続時に警告ページを抑止するヘッダーを付けるかどうか。
	SkipBrowserWarning bool `mapstructure:"skip_browser_warning"`
}

// StorageConfig は資格情報と設定値の保存先。
type StorageConfig struct {
	// Path はSQLiteファイルのパス。":memory:" の場合は永続化しない。
	Path string `mapstructure:"path" validate:"required"`
}

// CacheConfig はクエリキャッシュの設定。
type CacheConfig struct {
	// TTL はキャッシュの有効期間。0の場合はキャッシュしない。
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// SandboxConfig は開発用サンドボックスサーバーの設定。
type SandboxConfig struct {
	Port          int           `mapstructure:"port"           validate:"required,gte=1024,lte=65535"`
	DBPath        string        `mapstructure:"db_path"        validate:"required"`
	JWTSecret     string        `mapstructure:"jwt_secret"     validate:"required,min=8"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"      validate:"gt=0"`
	RefreshWindow time.Duration `mapstructure:"refresh_window" validate:"gt=0"`
	// AllowedOrigins はCORSで許可するオリジン。"*" で全て許可する。
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Demo は起動時に作成するデモアカウント。
	Demo DemoConfig `mapstructure:"demo"`
}

// DemoConfig はサンドボックスのデモアカウント設定。
type DemoConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Name     string `mapstructure:"name"     validate:"required_if=Enabled true"`
	Email    string `mapstructure:"email"    validate:"required_if=Enabled true,omitempty,email"`
	Password string `mapstructure:"password" validate:"required_if=Enabled true,omitempty,min=8"`
}

// Load は設定を読み込んで検証する。pathが空の場合は既定の場所からconfig.yamlを探す。
func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath(".")
		if dir, err := DefaultDir(); err == nil {
			vip.AddConfigPath(dir)
		}
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	setDefaults(vip)

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定のデコードに失敗: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return &cfg, nil
}

// setDefaults はデフォルト値を設定する。
// 環境変数での上書きはデフォルト値が登録されたキーに対してのみ働く。
func setDefaults(vip *viper.Viper) {
	storagePath := "guardian.db"
	if dir, err := DefaultDir(); err == nil {
		storagePath = filepath.Join(dir, "guardian.db")
	}

	vip.SetDefault("api.base_url", "http://localhost:8001/api/v1")
	vip.SetDefault("api.timeout", "30s")
	vip.SetDefault("api.skip_browser_warning", true)
	vip.SetDefault("storage.path", storagePath)
	vip.SetDefault("cache.ttl", "5m")
	vip.SetDefault("sandbox.port", 8001)
	vip.SetDefault("sandbox.db_path", "sandbox.db")
	vip.SetDefault("sandbox.jwt_secret", "dev-secret-key")
	vip.SetDefault("sandbox.token_ttl", "15m")
	vip.SetDefault("sandbox.refresh_window", "168h")
	vip.SetDefault("sandbox.allowed_origins", []string{"*"})
	vip.SetDefault("sandbox.demo.enabled", true)
	vip.SetDefault("sandbox.demo.name", "Budi Santoso")
	vip.SetDefault("sandbox.demo.email", "demo@guardian.test")
	vip.SetDefault("sandbox.demo.password", "password123")
}

// DefaultDir はユーザーごとの設定ディレクトリを返す。
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "guardian"), nil
}
