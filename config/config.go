package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Offline  OfflineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// OfflineConfig 離線快照與同步的設定
type OfflineConfig struct {
	StorePath    string        // 本地 sqlite 檔案路徑
	PingInterval time.Duration // 連線狀態探測間隔
	DefaultLang  string        // 查無名稱時的顯示語言
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時沿用環境變數即可
	_ = godotenv.Load()

	AppConfig = &Config{
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Offline:  GetOfflineConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	testOfflineConfig := OfflineConfig{
		StorePath:    ":memory:",
		PingInterval: time.Second,
		DefaultLang:  "en",
	}

	return &Config{
		Database: *testConfig,
		Redis:    testRedisConfig,
		Offline:  testOfflineConfig,
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetOfflineConfig() OfflineConfig {
	seconds, err := strconv.Atoi(getEnv("OFFLINE_PING_INTERVAL_SECONDS", "5"))
	if err != nil {
		panic(err)
	}

	return OfflineConfig{
		StorePath:    getEnv("OFFLINE_STORE_PATH", "offline.db"),
		PingInterval: time.Duration(seconds) * time.Second,
		DefaultLang:  getEnv("OFFLINE_DEFAULT_LANG", "en"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
