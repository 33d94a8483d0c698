// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// セッションストアの種類
const (
	SessionStoreCookie = "cookie"
	SessionStoreMemory = "memory"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port            string        // HTTPサーバーのポート番号
	GinMode         string        // Ginの実行モード (debug, release, test)
	LogLevel        string        // ログレベル (debug, info, warn, error)
	ShutdownTimeout time.Duration // グレースフルシャットダウンの猶予

	// ドキュメント設定
	DataDir   string // ドキュメントを保存するディレクトリ
	UsersFile string // ユーザー名とbcryptハッシュを記載したYAMLファイル

	// セッション設定
	SessionStore         string // cookie または memory
	SessionSecret        string // セッション署名用の秘密鍵
	SessionSecretDerived bool   // SESSION_SECRET 未設定のため起動時に生成した場合 true

	// 排他制御設定（空の場合はプロセス内ロック）
	RedisURL string

	// CORS設定（空の場合はCORSミドルウェアを使わない）
	CORSAllowedOrigins string

	// 信頼するプロキシ（空の場合は X-Forwarded-For を無視する）
	TrustedProxies string
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,

		DataDir:   getEnv("DATA_DIR", "data"),
		UsersFile: getEnv("USERS_FILE", "users.yaml"),

		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", SessionStoreCookie)),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		TrustedProxies: getEnv("TRUSTED_PROXIES", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// ローカル開発ではプロセスごとの鍵で代用する（再起動でセッションは失効する）
	if config.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		config.SessionSecret = secret
		config.SessionSecretDerived = true
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreCookie, SessionStoreMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreCookie, SessionStoreMemory, c.SessionStore)
	}

	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	if c.UsersFile == "" {
		return fmt.Errorf("USERS_FILE must not be empty")
	}

	// 本番環境では鍵の自動生成を許可しない
	if c.GinMode == "release" && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in release mode")
	}

	return nil
}

// AllowedOrigins は CORS_ALLOWED_ORIGINS をカンマで分割して返します。
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxyList は TRUSTED_PROXIES をカンマで分割して返します。
func (c *Config) TrustedProxyList() []string {
	return splitList(c.TrustedProxies)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
