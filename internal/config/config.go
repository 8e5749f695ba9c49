package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	Server    ServerConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Mail      MailConfig
	Inventory InventoryConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Driver   string // mysql or postgres
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type JWTConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig points at the session revocation store. An empty Addr keeps
// revocations in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Sender     string
	UseTLS     bool
	Recipients []string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Sender != ""
}

type InventoryConfig struct {
	MaxBulkComputers int
	LabCascadeDelete bool
}

type AdminConfig struct {
	InitialPassword string
}

type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "lab_maintenance"),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "1h"), time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "5000"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Mail: MailConfig{
			Host:       getEnv("MAIL_SERVER", ""),
			Port:       parseInt(getEnv("MAIL_PORT", "587"), 587),
			Username:   getEnv("MAIL_USERNAME", ""),
			Password:   getEnv("MAIL_PASSWORD", ""),
			Sender:     getEnv("MAIL_DEFAULT_SENDER", ""),
			UseTLS:     parseBool(getEnv("MAIL_USE_TLS", "true"), true),
			Recipients: parseList(getEnv("MAIL_RECIPIENTS", "")),
		},
		Inventory: InventoryConfig{
			MaxBulkComputers: parseInt(getEnv("MAX_BULK_COMPUTERS", "100"), 100),
			LabCascadeDelete: parseBool(getEnv("LAB_DELETE_CASCADE", "false"), false),
		},
		Admin: AdminConfig{
			InitialPassword: getEnv("ADMIN_INIT_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: parseInt(getEnv("LOGIN_RATE_PER_MINUTE", "20"), 20),
			LoginBurst:     parseInt(getEnv("LOGIN_RATE_BURST", "5"), 5),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return b
}

func parseList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
