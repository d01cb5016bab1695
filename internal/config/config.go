// Package config はアプリケーション設定を環境変数・.env・フラグから読み込みます。
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DefaultJWTExpiration はトークンの既定の有効期間です (86,400,000 ms)。
const DefaultJWTExpiration = 24 * time.Hour

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable not set")

// JWTConfig はトークンサービスに注入される署名設定です。
type JWTConfig struct {
	Secret     []byte
	Expiration time.Duration
}

// DBConfig はデータベース接続設定です。
type DBConfig struct {
	Driver string // "mysql" または "sqlite3"
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string // sqlite3 のファイルパス
}

// DSN はドライバに応じた接続文字列を構築します。
func (c DBConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return c.Path + "?_foreign_keys=on"
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Name
	cfg.ParseTime = true
	// UPDATEの影響行数を一致行数で数える
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// RedisConfig はログインのレート制限に使うRedis設定です。Addrが空なら無効。
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	LoginLimit  int
	LoginWindow time.Duration
}

// Enabled はRedisが設定されているかを返します。
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Config はアプリケーション全体の設定です。起動時に一度だけ構築し、以後は変更しません。
type Config struct {
	Env          string
	Addr         string
	AllowOrigins []string
	JWT          JWTConfig
	DB           DBConfig
	Redis        RedisConfig
}

// IsProduction は本番環境かどうかを返します。
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load はコマンドライン引数を解析し、.env ファイルと環境変数から設定を読み込みます。
// フラグで指定された値は環境変数より優先されます。
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("api", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "path to the .env file")
	addr := flags.String("addr", "", "listen address (overrides PORT)")
	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	// .env が無くてもエラーにしない (コンテナでは環境変数を直接渡すため)
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	return cfg, nil
}

// FromEnv は現在のプロセス環境変数だけから設定を構築します。
func FromEnv() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	expiration := DefaultJWTExpiration
	if v := os.Getenv("JWT_EXPIRATION_MS"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("invalid JWT_EXPIRATION_MS %q", v)
		}
		expiration = time.Duration(ms) * time.Millisecond
	}

	driver := getEnv("DB_DRIVER", "mysql")
	if driver != "mysql" && driver != "sqlite3" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	loginLimit, err := getInt("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return Config{}, err
	}
	loginWindow := time.Minute
	if v := os.Getenv("LOGIN_RATE_WINDOW"); v != "" {
		loginWindow, err = time.ParseDuration(v)
		if err != nil || loginWindow <= 0 {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_WINDOW %q", v)
		}
	}

	return Config{
		Env:          getEnv("APP_ENV", "development"),
		Addr:         ":" + getEnv("PORT", "8080"),
		AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		JWT: JWTConfig{
			Secret:     []byte(secret),
			Expiration: expiration,
		},
		DB: DBConfig{
			Driver: driver,
			User:   os.Getenv("DB_USER"),
			Pass:   os.Getenv("DB_PASS"),
			Host:   getEnv("DB_HOST", "127.0.0.1"),
			Port:   getEnv("DB_PORT", "3306"),
			Name:   os.Getenv("DB_NAME"),
			Path:   getEnv("DB_PATH", "task_manager.db"),
		},
		Redis: RedisConfig{
			Addr:        os.Getenv("REDIS_ADDR"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          redisDB,
			LoginLimit:  loginLimit,
			LoginWindow: loginWindow,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
